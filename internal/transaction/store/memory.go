package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shandysiswandi/gobank/internal/pkg/pkgerror"
	"github.com/shandysiswandi/gobank/internal/transaction/entity"
)

// InMemoryStore keeps transaction records in process memory.
//
// It mimics the relational contract: auto-increment ids starting at 1 and a
// unique index on the trade number.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]entity.Transaction
	tradeNo map[string]int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextID:  1,
		byID:    make(map[int64]entity.Transaction),
		tradeNo: make(map[string]int64),
	}
}

func (s *InMemoryStore) Insert(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
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

func (s *InMemoryStore) FindByID(ctx context.Context, id int64) (entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.byID[id]
	if !ok {
		return entity.Transaction{}, pkgerror.ErrNotFound
	}

	return tx, nil
}

func (s *InMemoryStore) FindByTradeNo(ctx context.Context, tradeNo string) (entity.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tradeNo[tradeNo]
	if !ok {
		return entity.Transaction{}, pkgerror.ErrNotFound
	}

	return s.byID[id], nil
}

func (s *InMemoryStore) Save(ctx context.Context, tx entity.Transaction) (entity.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[tx.ID]; !ok {
		return entity.Transaction{}, pkgerror.ErrNotFound
	}

	s.byID[tx.ID] = tx
	s.tradeNo[tx.TradeNo] = tx.ID

	return tx, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, tx entity.Transaction) error {
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

func (s *InMemoryStore) FindAllOrdered(ctx context.Context, page, size int) (entity.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]entity.Transaction, 0, len(s.byID))
	for _, tx := range s.byID {
		all = append(all, tx)
	}

	// createdAt descending, id descending as a stable tiebreak
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	items := make([]entity.Transaction, end-start)
	copy(items, all[start:end])

	return entity.NewPage(items, page, size, int64(len(all))), nil
}
