package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/gobank/internal/pkg/pkgcache"
	"github.com/shandysiswandi/gobank/internal/pkg/pkgerror"
	"github.com/shandysiswandi/gobank/internal/pkg/pkguid"
	"github.com/shandysiswandi/gobank/internal/transaction/entity"
)

// Store is the durable table of transaction records. It holds no caching
// logic; the usecase owns cache population and invalidation around it.
type Store interface {
	Insert(ctx context.Context, tx entity.Transaction) (entity.Transaction, error)
	FindByID(ctx context.Context, id int64) (entity.Transaction, error)
	FindByTradeNo(ctx context.Context, tradeNo string) (entity.Transaction, error)
	Save(ctx context.Context, tx entity.Transaction) (entity.Transaction, error)
	Delete(ctx context.Context, tx entity.Transaction) error
	FindAllOrdered(ctx context.Context, page, size int) (entity.Page, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.ChangeEvent) error
}

type Clock interface {
	Now() time.Time
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Dependency struct {
	Store     Store
	Events    EventPublisher
	Clock     Clock
	EventID   pkguid.NumberID
	Runner    Runner
	RootCtx   context.Context
	ByID      *pkgcache.Cache[int64, entity.Transaction]
	ByTradeNo *pkgcache.Cache[string, entity.Transaction]
}

// Usecase implements the transaction CRUD operations with a dual-key
// cache-aside layer.
//
// Coherence rule: every mutating operation writes the store first, then
// evicts BOTH cache entries of the affected record, so the next read through
// either key reloads the latest stored row. Reads populate only the cache
// they were asked through.
type Usecase struct {
	store     Store
	events    EventPublisher
	clock     Clock
	eventID   pkguid.NumberID
	runner    Runner
	rootCtx   context.Context
	byID      *pkgcache.Cache[int64, entity.Transaction]
	byTradeNo *pkgcache.Cache[string, entity.Transaction]
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	byID := dep.ByID
	if byID == nil {
		byID = pkgcache.New[int64, entity.Transaction](pkgcache.Config{})
	}

	byTradeNo := dep.ByTradeNo
	if byTradeNo == nil {
		byTradeNo = pkgcache.New[string, entity.Transaction](pkgcache.Config{})
	}

	return &Usecase{
		store:     dep.Store,
		events:    dep.Events,
		clock:     clock,
		eventID:   dep.EventID,
		runner:    dep.Runner,
		rootCtx:   root,
		byID:      byID,
		byTradeNo: byTradeNo,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Create validates and persists a new transaction record.
//
// Status, CreatedAt and UpdatedAt are assigned here; the store assigns the
// id. The caches are left untouched so the first read populates them lazily.
func (u *Usecase) Create(ctx context.Context, in CreateTransactionInput) (entity.Transaction, error) {
	if u.store == nil {
		return entity.Transaction{}, pkgerror.NewServer(errors.New("missing store dependency"))
	}

	if fields := in.validate(); len(fields) > 0 {
		return entity.Transaction{}, pkgerror.NewFieldViolations(fields)
	}

	tx := entity.Transaction{
		TradeNo:       in.TradeNo,
		AccountNumber: in.AccountNumber,
		AccountName:   in.AccountName,
		PayeeAccount:  in.PayeeAccount,
		PayeeName:     in.PayeeName,
		Amount:        in.Amount,
		Currency:      in.Currency,
		Type:          in.Type,
		DebitCredit:   in.DebitCredit,
		Status:        entity.TxStatusPending,
		Description:   in.Description,
		CreatedAt:     u.clock.Now(),
		UpdatedAt:     nil,
	}

	saved, err := u.store.Insert(ctx, tx)
	if err != nil {
		if errors.Is(err, pkgerror.ErrDuplicateTradeNo) {
			return entity.Transaction{}, pkgerror.NewBusiness(
				"transaction already exists for trade number "+in.TradeNo,
				pkgerror.CodeConflict,
			)
		}
		return entity.Transaction{}, normalizeErr(err)
	}

	slog.InfoContext(ctx, "transaction created", "id", saved.ID, "trade_no", saved.TradeNo)
	u.publishChange(ctx, entity.ChangeActionCreated, saved)

	return saved, nil
}

// GetByID is a read-through lookup on the by-id cache only.
func (u *Usecase) GetByID(ctx context.Context, id int64) (entity.Transaction, error) {
	if id < 1 {
		return entity.Transaction{}, pkgerror.NewInvalidInput(errors.New("transaction id must be positive"))
	}

	if tx, ok := u.byID.Get(id); ok {
		return tx, nil
	}

	tx, err := u.store.FindByID(ctx, id)
	if err != nil {
		return entity.Transaction{}, mapStoreErr(err)
	}

	u.byID.Put(id, tx)

	return tx, nil
}

// GetByTradeNo is a read-through lookup on the by-trade-no cache only.
func (u *Usecase) GetByTradeNo(ctx context.Context, tradeNo string) (entity.Transaction, error) {
	if !tradeNoPattern.MatchString(tradeNo) {
		return entity.Transaction{}, pkgerror.NewInvalidInput(errors.New("trade number must be 18 digits"))
	}

	if tx, ok := u.byTradeNo.Get(tradeNo); ok {
		return tx, nil
	}

	tx, err := u.store.FindByTradeNo(ctx, tradeNo)
	if err != nil {
		return entity.Transaction{}, mapStoreErr(err)
	}

	u.byTradeNo.Put(tradeNo, tx)

	return tx, nil
}

// UpdateByID replaces the mutable fields of the record addressed by id.
func (u *Usecase) UpdateByID(ctx context.Context, id int64, in UpdateTransactionInput) (entity.Transaction, error) {
	if fields := in.validate(); len(fields) > 0 {
		return entity.Transaction{}, pkgerror.NewFieldViolations(fields)
	}

	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entity.Transaction{}, err
	}

	return u.update(ctx, current, in)
}

// UpdateByTradeNo replaces the mutable fields of the record addressed by
// trade number.
func (u *Usecase) UpdateByTradeNo(ctx context.Context, tradeNo string, in UpdateTransactionInput) (entity.Transaction, error) {
	if fields := in.validate(); len(fields) > 0 {
		return entity.Transaction{}, pkgerror.NewFieldViolations(fields)
	}

	current, err := u.GetByTradeNo(ctx, tradeNo)
	if err != nil {
		return entity.Transaction{}, err
	}

	return u.update(ctx, current, in)
}

func (u *Usecase) update(ctx context.Context, current entity.Transaction, in UpdateTransactionInput) (entity.Transaction, error) {
	in.applyTo(&current)
	now := u.clock.Now()
	current.UpdatedAt = &now

	updated, err := u.store.Save(ctx, current)
	if err != nil {
		return entity.Transaction{}, normalizeErr(err)
	}

	// Both cached views are stale now. Evict rather than refresh so the next
	// read of either key reloads from the store and repopulates exactly the
	// cache it came through.
	u.byID.Evict(updated.ID)
	u.byTradeNo.Evict(updated.TradeNo)

	slog.InfoContext(ctx, "transaction updated", "id", updated.ID, "trade_no", updated.TradeNo)
	u.publishChange(ctx, entity.ChangeActionUpdated, updated)

	return updated, nil
}

// DeleteByID removes the record addressed by id.
func (u *Usecase) DeleteByID(ctx context.Context, id int64) error {
	tx, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return u.delete(ctx, tx)
}

// DeleteByTradeNo removes the record addressed by trade number.
func (u *Usecase) DeleteByTradeNo(ctx context.Context, tradeNo string) error {
	tx, err := u.GetByTradeNo(ctx, tradeNo)
	if err != nil {
		return err
	}

	return u.delete(ctx, tx)
}

func (u *Usecase) delete(ctx context.Context, tx entity.Transaction) error {
	if err := u.store.Delete(ctx, tx); err != nil {
		return mapStoreErr(err)
	}

	// The read-through load above may have just populated one of the caches,
	// so a delete always evicts both keys.
	u.byID.Evict(tx.ID)
	u.byTradeNo.Evict(tx.TradeNo)

	slog.InfoContext(ctx, "transaction deleted", "id", tx.ID, "trade_no", tx.TradeNo)
	u.publishChange(ctx, entity.ChangeActionDeleted, tx)

	return nil
}

// List returns one page of records ordered by creation time, newest first.
//
// Listing always bypasses both caches: any concurrent write shifts ordering
// and counts, so cached pages would need invalidation on every mutation.
func (u *Usecase) List(ctx context.Context, page, size int) (entity.Page, error) {
	if page < 0 {
		return entity.Page{}, pkgerror.NewInvalidInput(errors.New("page must be zero or positive"))
	}
	if size < 1 || size > 100 {
		return entity.Page{}, pkgerror.NewInvalidInput(errors.New("size must be between 1 and 100"))
	}

	result, err := u.store.FindAllOrdered(ctx, page, size)
	if err != nil {
		return entity.Page{}, normalizeErr(err)
	}

	return result, nil
}

func (u *Usecase) publishChange(ctx context.Context, action entity.ChangeAction, tx entity.Transaction) {
	if u.events == nil || u.eventID == nil {
		return
	}

	event := entity.ChangeEvent{
		EventID: u.eventID.Generate(),
		Action:  action,
		Tx:      tx,
	}

	publish := func(ctx context.Context) error {
		if err := u.events.Publish(ctx, event); err != nil {
			slog.WarnContext(ctx, "failed to publish change event",
				"event_id", event.EventID, "action", action, "id", tx.ID, "error", err)
		}
		return nil
	}

	// The bus send is detached from the request lifetime; a slow consumer
	// must not block or fail the mutation that already committed.
	if u.runner != nil {
		u.runner.Go(u.rootCtx, publish)
		return
	}
	_ = publish(ctx)
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("transaction not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
