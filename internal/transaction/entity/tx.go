package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single banking transaction record.
//
// It is addressable by two independent keys: the store-assigned ID and the
// externally supplied 18-digit TradeNo. Both are immutable after creation.
type Transaction struct {
	ID            int64
	TradeNo       string
	AccountNumber string
	AccountName   string
	PayeeAccount  string
	PayeeName     string
	Amount        decimal.Decimal
	Currency      string
	Type          TxType
	DebitCredit   DebitCredit
	Status        TxStatus
	Description   string
	CreatedAt     time.Time
	UpdatedAt     *time.Time // nil until the first update
}

// Page is one page of an ordered listing.
type Page struct {
	Items         []Transaction
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage computes TotalPages from the element count.
func NewPage(items []Transaction, page, size int, totalElements int64) Page {
	totalPages := 0
	if size > 0 {
		totalPages = int((totalElements + int64(size) - 1) / int64(size))
	}

	return Page{
		Items:         items,
		Page:          page,
		Size:          size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
	}
}
