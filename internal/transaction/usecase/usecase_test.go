package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gobank/internal/pkg/pkgerror"
	"github.com/shandysiswandi/gobank/internal/transaction/entity"
	"github.com/shopspring/decimal"
)

// testStore counts reads so the tests can prove cache behavior.
type testStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]entity.Transaction
	tradeNo map[string]int64

	readsByID      int
	readsByTradeNo int
}

func newTestStore() *testStore {
	return &testStore{
		nextID:  1,
		byID:    make(map[int64]entity.Transaction),
		tradeNo: make(map[string]int64),
	}
}

func (s *testStore) Insert(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tradeNo[tx.TradeNo]; exists {
		return entity.Transaction{}, pkgerror.ErrDuplicateTradeNo
	}
	tx.ID = s.nextID
	s.nextID++
	s.byID[tx.ID] = tx
	s.tradeNo[tx.TradeNo] = tx.ID
	return tx, nil
}

func (s *testStore) FindByID(ctx context.Context, id int64) (entity.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readsByID++
	tx, ok := s.byID[id]
	if !ok {
		return entity.Transaction{}, pkgerror.ErrNotFound
	}
	return tx, nil
}

func (s *testStore) FindByTradeNo(ctx context.Context, tradeNo string) (entity.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readsByTradeNo++
	id, ok := s.tradeNo[tradeNo]
	if !ok {
		return entity.Transaction{}, pkgerror.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *testStore) Save(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[tx.ID]; !ok {
		return entity.Transaction{}, pkgerror.ErrNotFound
	}
	s.byID[tx.ID] = tx
	return tx, nil
}

func (s *testStore) Delete(ctx context.Context, tx entity.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[tx.ID]
	if !ok {
		return pkgerror.ErrNotFound
	}
	delete(s.byID, tx.ID)
	delete(s.tradeNo, stored.TradeNo)
	return nil
}

func (s *testStore) FindAllOrdered(ctx context.Context, page, size int) (entity.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := int64(len(s.byID))
	all := make([]entity.Transaction, 0, len(s.byID))
	// ids are assigned in creation order, so descending id is descending createdAt
	for id := s.nextID - 1; id >= 1; id-- {
		if tx, ok := s.byID[id]; ok {
			all = append(all, tx)
		}
	}

	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	return entity.NewPage(all[start:end], page, size, total), nil
}

type testPublisher struct {
	mu     sync.Mutex
	events []entity.ChangeEvent
}

func (p *testPublisher) Publish(ctx context.Context, event entity.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *testPublisher) actions() []entity.ChangeAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]entity.ChangeAction, 0, len(p.events))
	for _, ev := range p.events {
		actions = append(actions, ev.Action)
	}
	return actions
}

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

const testTradeNo = "123456789012345654"

func validCreateInput() CreateTransactionInput {
	return CreateTransactionInput{
		TradeNo:       testTradeNo,
		AccountNumber: "1234567890123456",
		AccountName:   "user 1",
		PayeeAccount:  "9876543210987654",
		PayeeName:     "user 2",
		Amount:        decimal.RequireFromString("500.00"),
		Currency:      "CNY",
		Type:          entity.TxTypeTransferOut,
		DebitCredit:   entity.DebitCreditDebit,
	}
}

func validUpdateInput() UpdateTransactionInput {
	return UpdateTransactionInput{
		AccountNumber: "1234567890123456",
		AccountName:   "user 1",
		PayeeAccount:  "9876543210987654",
		PayeeName:     "user 2",
		Amount:        decimal.RequireFromString("2000.00"),
		Currency:      "CNY",
		Type:          entity.TxTypeTransferOut,
		DebitCredit:   entity.DebitCreditDebit,
	}
}

func newTestUsecase(store Store, events EventPublisher) *Usecase {
	return New(Dependency{
		Store:   store,
		Events:  events,
		Clock:   fixedClock{now: time.Unix(1_700_000_000, 0)},
		EventID: &seqID{},
	})
}

func assertCode(t *testing.T, err error, code pkgerror.Code) {
	t.Helper()

	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected pkgerror.Error, got %T: %v", err, err)
	}
	if perr.Code() != code {
		t.Fatalf("error code = %v, want %v", perr.Code(), code)
	}
}

func TestCreateAssignsServerFields(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	events := &testPublisher{}
	uc := newTestUsecase(store, events)

	tx, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	if tx.ID != 1 {
		t.Fatalf("Create() id = %d, want 1", tx.ID)
	}
	if tx.Status != entity.TxStatusPending {
		t.Fatalf("Create() status = %s, want %s", tx.Status, entity.TxStatusPending)
	}
	if tx.CreatedAt.IsZero() {
		t.Fatal("Create() createdAt is zero")
	}
	if tx.UpdatedAt != nil {
		t.Fatal("Create() updatedAt must be nil")
	}
	if got := events.actions(); len(got) != 1 || got[0] != entity.ChangeActionCreated {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestCreateRejectsDuplicateTradeNo(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	uc := newTestUsecase(store, nil)

	first, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("first Create() err = %v", err)
	}

	_, err = uc.Create(context.Background(), validCreateInput())
	assertCode(t, err, pkgerror.CodeConflict)

	// the first record is unaffected
	got, err := uc.GetByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("GetByID() after duplicate err = %v", err)
	}
	if got.TradeNo != testTradeNo {
		t.Fatalf("GetByID() tradeNo = %s, want %s", got.TradeNo, testTradeNo)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	uc := newTestUsecase(newTestStore(), nil)

	cases := []struct {
		name   string
		mutate func(*CreateTransactionInput)
		field  string
	}{
		{"short trade no", func(in *CreateTransactionInput) { in.TradeNo = "12345" }, "tradeNo"},
		{"non numeric trade no", func(in *CreateTransactionInput) { in.TradeNo = "12345678901234565x" }, "tradeNo"},
		{"zero amount", func(in *CreateTransactionInput) { in.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(in *CreateTransactionInput) { in.Amount = decimal.NewFromInt(-5) }, "amount"},
		{"too many decimals", func(in *CreateTransactionInput) { in.Amount = decimal.RequireFromString("1.999") }, "amount"},
		{"amount too large", func(in *CreateTransactionInput) { in.Amount = decimal.New(1, 17) }, "amount"},
		{"lowercase currency", func(in *CreateTransactionInput) { in.Currency = "cny" }, "currency"},
		{"unknown type", func(in *CreateTransactionInput) { in.Type = "XX" }, "type"},
		{"unknown debit credit", func(in *CreateTransactionInput) { in.DebitCredit = "XX" }, "debitCredit"},
		{"long description", func(in *CreateTransactionInput) { in.Description = strings.Repeat("a", 501) }, "description"},
		{"missing account number", func(in *CreateTransactionInput) { in.AccountNumber = "" }, "accountNumber"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)

			_, err := uc.Create(context.Background(), in)
			assertCode(t, err, pkgerror.CodeInvalidInput)

			var perr *pkgerror.Error
			errors.As(err, &perr)
			if _, ok := perr.Fields()[tc.field]; !ok {
				t.Fatalf("expected violation on %q, got %v", tc.field, perr.Fields())
			}
		})
	}
}

func TestGetByIDReadThrough(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	uc := newTestUsecase(store, nil)

	created, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}
	if store.readsByID != 0 {
		t.Fatalf("Create() must not read, got %d reads", store.readsByID)
	}

	// cold read loads from the store and populates the by-id cache
	if _, err := uc.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("GetByID() err = %v", err)
	}
	if store.readsByID != 1 {
		t.Fatalf("cold GetByID() store reads = %d, want 1", store.readsByID)
	}

	// warm read is served from cache
	if _, err := uc.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("warm GetByID() err = %v", err)
	}
	if store.readsByID != 1 {
		t.Fatalf("warm GetByID() store reads = %d, want 1", store.readsByID)
	}

	// by-id reads never populate the by-tradeno cache
	if _, err := uc.GetByTradeNo(context.Background(), created.TradeNo); err != nil {
		t.Fatalf("GetByTradeNo() err = %v", err)
	}
	if store.readsByTradeNo != 1 {
		t.Fatalf("GetByTradeNo() store reads = %d, want 1", store.readsByTradeNo)
	}
}

func TestGetByTradeNoDoesNotPopulateByID(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	uc := newTestUsecase(store, nil)

	created, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	if _, err := uc.GetByTradeNo(context.Background(), created.TradeNo); err != nil {
		t.Fatalf("GetByTradeNo() err = %v", err)
	}

	if _, err := uc.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("GetByID() err = %v", err)
	}
	if store.readsByID != 1 {
		t.Fatalf("GetByID() store reads = %d, want 1 (no cross-population)", store.readsByID)
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	uc := newTestUsecase(newTestStore(), nil)

	_, err := uc.GetByID(context.Background(), 42)
	assertCode(t, err, pkgerror.CodeNotFound)

	_, err = uc.GetByTradeNo(context.Background(), testTradeNo)
	assertCode(t, err, pkgerror.CodeNotFound)
}

func TestGetRejectsMalformedKeys(t *testing.T) {
	t.Parallel()

	uc := newTestUsecase(newTestStore(), nil)

	_, err := uc.GetByID(context.Background(), 0)
	assertCode(t, err, pkgerror.CodeInvalidInput)

	_, err = uc.GetByTradeNo(context.Background(), "not-a-trade-no")
	assertCode(t, err, pkgerror.CodeInvalidInput)
}

func TestUpdateByIDKeepsBothKeysCoherent(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	events := &testPublisher{}
	uc := newTestUsecase(store, events)

	created, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	// warm both caches with the pre-update value
	if _, err := uc.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("GetByID() err = %v", err)
	}
	if _, err := uc.GetByTradeNo(context.Background(), created.TradeNo); err != nil {
		t.Fatalf("GetByTradeNo() err = %v", err)
	}

	updated, err := uc.UpdateByID(context.Background(), created.ID, validUpdateInput())
	if err != nil {
		t.Fatalf("UpdateByID() err = %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("2000.00")) {
		t.Fatalf("UpdateByID() amount = %s, want 2000.00", updated.Amount)
	}
	if updated.UpdatedAt == nil {
		t.Fatal("UpdateByID() updatedAt must be set")
	}

	// both keys now observe the patched value, never the stale cached one
	byID, err := uc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() after update err = %v", err)
	}
	if !byID.Amount.Equal(updated.Amount) {
		t.Fatalf("GetByID() amount = %s, want %s", byID.Amount, updated.Amount)
	}

	byTradeNo, err := uc.GetByTradeNo(context.Background(), created.TradeNo)
	if err != nil {
		t.Fatalf("GetByTradeNo() after update err = %v", err)
	}
	if !byTradeNo.Amount.Equal(updated.Amount) {
		t.Fatalf("GetByTradeNo() amount = %s, want %s", byTradeNo.Amount, updated.Amount)
	}

	if got := events.actions(); len(got) != 2 || got[1] != entity.ChangeActionUpdated {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestUpdateByTradeNoEvictsByIDCache(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	uc := newTestUsecase(store, nil)

	created, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	if _, err := uc.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("GetByID() err = %v", err)
	}

	patch := validUpdateInput()
	patch.DebitCredit = entity.DebitCreditCredit
	if _, err := uc.UpdateByTradeNo(context.Background(), created.TradeNo, patch); err != nil {
		t.Fatalf("UpdateByTradeNo() err = %v", err)
	}

	got, err := uc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() after update err = %v", err)
	}
	if got.DebitCredit != entity.DebitCreditCredit {
		t.Fatalf("GetByID() debitCredit = %s, want %s (stale cache)", got.DebitCredit, entity.DebitCreditCredit)
	}
}

func TestUpdatePreservesImmutableFields(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	uc := newTestUsecase(store, nil)

	created, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	updated, err := uc.UpdateByID(context.Background(), created.ID, validUpdateInput())
	if err != nil {
		t.Fatalf("UpdateByID() err = %v", err)
	}

	if updated.ID != created.ID {
		t.Fatalf("id changed: %d -> %d", created.ID, updated.ID)
	}
	if updated.TradeNo != created.TradeNo {
		t.Fatalf("tradeNo changed: %s -> %s", created.TradeNo, updated.TradeNo)
	}
	if updated.Status != entity.TxStatusPending {
		t.Fatalf("status changed: %s", updated.Status)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("createdAt changed: %s -> %s", created.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt == nil || updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("updatedAt = %v, want >= createdAt", updated.UpdatedAt)
	}
}

func TestUpdateNotFound(t *testing.T) {
	t.Parallel()

	uc := newTestUsecase(newTestStore(), nil)

	_, err := uc.UpdateByID(context.Background(), 42, validUpdateInput())
	assertCode(t, err, pkgerror.CodeNotFound)

	_, err = uc.UpdateByTradeNo(context.Background(), testTradeNo, validUpdateInput())
	assertCode(t, err, pkgerror.CodeNotFound)
}

func TestDeleteByIDEvictsBothKeys(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	events := &testPublisher{}
	uc := newTestUsecase(store, events)

	created, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	// warm both caches moments before the delete
	if _, err := uc.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("GetByID() err = %v", err)
	}
	if _, err := uc.GetByTradeNo(context.Background(), created.TradeNo); err != nil {
		t.Fatalf("GetByTradeNo() err = %v", err)
	}

	if err := uc.DeleteByID(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteByID() err = %v", err)
	}

	_, err = uc.GetByID(context.Background(), created.ID)
	assertCode(t, err, pkgerror.CodeNotFound)

	_, err = uc.GetByTradeNo(context.Background(), created.TradeNo)
	assertCode(t, err, pkgerror.CodeNotFound)

	if got := events.actions(); len(got) != 2 || got[1] != entity.ChangeActionDeleted {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestDeleteByTradeNoEvictsBothKeys(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	uc := newTestUsecase(store, nil)

	created, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}

	if _, err := uc.GetByID(context.Background(), created.ID); err != nil {
		t.Fatalf("GetByID() err = %v", err)
	}

	if err := uc.DeleteByTradeNo(context.Background(), created.TradeNo); err != nil {
		t.Fatalf("DeleteByTradeNo() err = %v", err)
	}

	_, err = uc.GetByID(context.Background(), created.ID)
	assertCode(t, err, pkgerror.CodeNotFound)

	_, err = uc.GetByTradeNo(context.Background(), created.TradeNo)
	assertCode(t, err, pkgerror.CodeNotFound)
}

func TestListValidatesPagination(t *testing.T) {
	t.Parallel()

	uc := newTestUsecase(newTestStore(), nil)

	if _, err := uc.List(context.Background(), -1, 20); err == nil {
		t.Fatal("List() expected error for negative page")
	}
	if _, err := uc.List(context.Background(), 0, 0); err == nil {
		t.Fatal("List() expected error for zero size")
	}
	if _, err := uc.List(context.Background(), 0, 101); err == nil {
		t.Fatal("List() expected error for oversized page")
	}
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	uc := newTestUsecase(store, &testPublisher{})
	ctx := context.Background()

	created, err := uc.Create(ctx, validCreateInput())
	if err != nil {
		t.Fatalf("Create() err = %v", err)
	}
	if created.ID != 1 || created.Status != entity.TxStatusPending {
		t.Fatalf("Create() = id %d status %s", created.ID, created.Status)
	}

	got, err := uc.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID() err = %v", err)
	}
	if got.TradeNo != testTradeNo {
		t.Fatalf("GetByID() tradeNo = %s", got.TradeNo)
	}

	updated, err := uc.UpdateByID(ctx, 1, validUpdateInput())
	if err != nil {
		t.Fatalf("UpdateByID() err = %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("2000.00")) || updated.UpdatedAt == nil {
		t.Fatalf("UpdateByID() = %s updatedAt %v", updated.Amount, updated.UpdatedAt)
	}

	// cross-key invalidation: the trade-no view reflects the patched amount
	byTradeNo, err := uc.GetByTradeNo(ctx, testTradeNo)
	if err != nil {
		t.Fatalf("GetByTradeNo() err = %v", err)
	}
	if !byTradeNo.Amount.Equal(decimal.RequireFromString("2000.00")) {
		t.Fatalf("GetByTradeNo() amount = %s, want 2000.00", byTradeNo.Amount)
	}

	if err := uc.DeleteByID(ctx, 1); err != nil {
		t.Fatalf("DeleteByID() err = %v", err)
	}

	_, err = uc.GetByID(ctx, 1)
	assertCode(t, err, pkgerror.CodeNotFound)
	_, err = uc.GetByTradeNo(ctx, testTradeNo)
	assertCode(t, err, pkgerror.CodeNotFound)
}
