package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/gobank/internal/transaction/entity"
	"github.com/shopspring/decimal"
)

type TransactionRequest struct {
	TradeNo       string          `json:"tradeNo"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	PayeeAccount  string          `json:"payeeAccount"`
	PayeeName     string          `json:"payeeName"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Type          string          `json:"type"`
	DebitCredit   string          `json:"debitCredit"`
	Description   string          `json:"description"`
}

type TransactionResponse struct {
	ID            int64           `json:"id"`
	TradeNo       string          `json:"tradeNo"`
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	PayeeAccount  string          `json:"payeeAccount"`
	PayeeName     string          `json:"payeeName"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Type          string          `json:"type"`
	DebitCredit   string          `json:"debitCredit"`
	Status        string          `json:"status"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time      `json:"updatedAt"`
}

func toTransactionResponse(tx entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		TradeNo:       tx.TradeNo,
		AccountNumber: tx.AccountNumber,
		AccountName:   tx.AccountName,
		PayeeAccount:  tx.PayeeAccount,
		PayeeName:     tx.PayeeName,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Type:          string(tx.Type),
		DebitCredit:   string(tx.DebitCredit),
		Status:        string(tx.Status),
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

type CreateTransactionResponse struct {
	TransactionResponse
}

func (CreateTransactionResponse) StatusCode() int {
	return http.StatusCreated
}

func (CreateTransactionResponse) Message() string {
	return "transaction created"
}

type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	page         int
	size         int
	total        int64
	totalPages   int
}

func (r ListTransactionsResponse) Meta() map[string]any {
	return map[string]any{
		"page":           r.page,
		"size":           r.size,
		"total_elements": r.total,
		"total_pages":    r.totalPages,
	}
}
