package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shandysiswandi/gobank/internal/pkg/pkgerror"
	"github.com/shandysiswandi/gobank/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/gobank/internal/transaction/entity"
	"github.com/shandysiswandi/gobank/internal/transaction/usecase"
)

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Create(ctx context.Context, r *http.Request) (any, error) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, pkgerror.NewInvalidFormat()
	}

	tx, err := h.uc.Create(ctx, usecase.CreateTransactionInput{
		TradeNo:       req.TradeNo,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		PayeeAccount:  req.PayeeAccount,
		PayeeName:     req.PayeeName,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Type:          entity.TxType(req.Type),
		DebitCredit:   entity.DebitCredit(req.DebitCredit),
		Description:   req.Description,
	})
	if err != nil {
		return nil, err
	}

	return CreateTransactionResponse{TransactionResponse: toTransactionResponse(tx)}, nil
}

func (h *HTTPEndpoint) GetByID(ctx context.Context, r *http.Request) (any, error) {
	id, err := parseID(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toTransactionResponse(tx), nil
}

func (h *HTTPEndpoint) GetByTradeNo(ctx context.Context, r *http.Request) (any, error) {
	tx, err := h.uc.GetByTradeNo(ctx, pkgrouter.GetParam(ctx, "tradeNo"))
	if err != nil {
		return nil, err
	}

	return toTransactionResponse(tx), nil
}

func (h *HTTPEndpoint) UpdateByID(ctx context.Context, r *http.Request) (any, error) {
	id, err := parseID(ctx)
	if err != nil {
		return nil, err
	}

	patch, err := decodePatch(r)
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	return toTransactionResponse(tx), nil
}

func (h *HTTPEndpoint) UpdateByTradeNo(ctx context.Context, r *http.Request) (any, error) {
	patch, err := decodePatch(r)
	if err != nil {
		return nil, err
	}

	tx, err := h.uc.UpdateByTradeNo(ctx, pkgrouter.GetParam(ctx, "tradeNo"), patch)
	if err != nil {
		return nil, err
	}

	return toTransactionResponse(tx), nil
}

func (h *HTTPEndpoint) DeleteByID(ctx context.Context, r *http.Request) (any, error) {
	id, err := parseID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.uc.DeleteByID(ctx, id); err != nil {
		return nil, err
	}

	return nil, nil
}

func (h *HTTPEndpoint) DeleteByTradeNo(ctx context.Context, r *http.Request) (any, error) {
	if err := h.uc.DeleteByTradeNo(ctx, pkgrouter.GetParam(ctx, "tradeNo")); err != nil {
		return nil, err
	}

	return nil, nil
}

func (h *HTTPEndpoint) List(ctx context.Context, r *http.Request) (any, error) {
	query := r.URL.Query()

	page, size, err := parsePagination(query.Get("page"), query.Get("size"))
	if err != nil {
		return nil, err
	}

	result, err := h.uc.List(ctx, page, size)
	if err != nil {
		return nil, err
	}

	transactions := make([]TransactionResponse, 0, len(result.Items))
	for _, tx := range result.Items {
		transactions = append(transactions, toTransactionResponse(tx))
	}

	return ListTransactionsResponse{
		Transactions: transactions,
		page:         result.Page,
		size:         result.Size,
		total:        result.TotalElements,
		totalPages:   result.TotalPages,
	}, nil
}

func parseID(ctx context.Context) (int64, error) {
	raw := pkgrouter.GetParam(ctx, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, pkgerror.NewInvalidInput(errors.New("transaction id must be a positive integer"))
	}

	return id, nil
}

func decodePatch(r *http.Request) (usecase.UpdateTransactionInput, error) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return usecase.UpdateTransactionInput{}, pkgerror.NewInvalidFormat()
	}

	return usecase.UpdateTransactionInput{
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
		PayeeAccount:  req.PayeeAccount,
		PayeeName:     req.PayeeName,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Type:          entity.TxType(req.Type),
		DebitCredit:   entity.DebitCredit(req.DebitCredit),
		Description:   req.Description,
	}, nil
}

func parsePagination(pageRaw, sizeRaw string) (int, int, error) {
	page := 0
	size := 20

	if pageRaw != "" {
		value, err := strconv.Atoi(pageRaw)
		if err != nil || value < 0 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page"))
		}
		page = value
	}

	if sizeRaw != "" {
		value, err := strconv.Atoi(sizeRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid size"))
		}
		if value > 100 {
			value = 100
		}
		size = value
	}

	return page, size, nil
}
