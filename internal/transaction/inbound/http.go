package inbound

import (
	"context"

	"github.com/shandysiswandi/gobank/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/gobank/internal/transaction/entity"
	"github.com/shandysiswandi/gobank/internal/transaction/usecase"
)

type uc interface {
	Create(ctx context.Context, in usecase.CreateTransactionInput) (entity.Transaction, error)
	GetByID(ctx context.Context, id int64) (entity.Transaction, error)
	GetByTradeNo(ctx context.Context, tradeNo string) (entity.Transaction, error)
	UpdateByID(ctx context.Context, id int64, in usecase.UpdateTransactionInput) (entity.Transaction, error)
	UpdateByTradeNo(ctx context.Context, tradeNo string, in usecase.UpdateTransactionInput) (entity.Transaction, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteByTradeNo(ctx context.Context, tradeNo string) error
	List(ctx context.Context, page, size int) (entity.Page, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/transactions", end.Create)
	r.GET("/transactions", end.List) // ?page=&size=
	r.GET("/transactions/:id", end.GetByID)
	r.PUT("/transactions/:id", end.UpdateByID)
	r.DELETE("/transactions/:id", end.DeleteByID)

	// httprouter rejects a static "by-trade-no" segment beside the :id
	// wildcard, so trade-number addressing is a sibling resource.
	r.GET("/transactions-by-trade-no/:tradeNo", end.GetByTradeNo)
	r.PUT("/transactions-by-trade-no/:tradeNo", end.UpdateByTradeNo)
	r.DELETE("/transactions-by-trade-no/:tradeNo", end.DeleteByTradeNo)
}
