// Package memory provides a mutex-guarded in-memory StockRepository with
// the same semantics as the postgres store, including the unique
// (owner, ticker) rule. Used by unit tests and database-less dev runs.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stockfolio/backend/internal/domain"
)

// StockRepository implements domain.StockRepository over a map
type StockRepository struct {
	mu     sync.RWMutex
	stocks map[uuid.UUID]*domain.UserStock
}

// NewStockRepository creates an empty in-memory stock repository
func NewStockRepository() *StockRepository {
	return &StockRepository{
		stocks: make(map[uuid.UUID]*domain.UserStock),
	}
}

// Insert stores a new record, rejecting (owner, ticker) duplicates
func (r *StockRepository) Insert(ctx context.Context, stock *domain.UserStock) (*domain.UserStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(stock)
}

func (r *StockRepository) insertLocked(stock *domain.UserStock) (*domain.UserStock, error) {
	for _, existing := range r.stocks {
		if existing.OwnerID == stock.OwnerID && existing.Ticker == stock.Ticker {
			return nil, domain.ErrDuplicate
		}
	}

	if stock.ID == uuid.Nil {
		stock.ID = uuid.New()
	}
	r.stocks[stock.ID] = stock.Clone()
	return stock.Clone(), nil
}

// InsertBulk stores multiple records. Ordered inserts stop at the first
// failing element; unordered inserts attempt every element. Either way a
// failure is reported as a *domain.BulkInsertError carrying the records
// that did make it in.
func (r *StockRepository) InsertBulk(ctx context.Context, stocks []*domain.UserStock, ordered bool) ([]*domain.UserStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := make([]*domain.UserStock, 0, len(stocks))
	var firstErr error
	failedIndex := -1

	for i, stock := range stocks {
		saved, err := r.insertLocked(stock)
		if err != nil {
			if firstErr == nil {
				firstErr = err
				failedIndex = i
			}
			if ordered {
				break
			}
			continue
		}
		inserted = append(inserted, saved)
	}

	if firstErr != nil {
		return inserted, &domain.BulkInsertError{
			Inserted:    inserted,
			FailedIndex: failedIndex,
			Err:         firstErr,
		}
	}
	return inserted, nil
}

// FindByID retrieves a record by its ID
func (r *StockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserStock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stock, ok := r.stocks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return stock.Clone(), nil
}

// FindOne retrieves a single record matching the filter
func (r *StockRepository) FindOne(ctx context.Context, filter domain.StockFilter) (*domain.UserStock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stock := range r.stocks {
		if matches(filter, stock) {
			return stock.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

// FindMany retrieves all records matching the filter; order is not
// guaranteed
func (r *StockRepository) FindMany(ctx context.Context, filter domain.StockFilter) ([]*domain.UserStock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.UserStock, 0)
	for _, stock := range r.stocks {
		if matches(filter, stock) {
			result = append(result, stock.Clone())
		}
	}
	return result, nil
}

// UpdateOne applies the patch to a single matching record
func (r *StockRepository) UpdateOne(ctx context.Context, filter domain.StockFilter, patch domain.StockPatch) (*domain.UserStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stock := range r.stocks {
		if !matches(filter, stock) {
			continue
		}
		if err := r.applyLocked(stock, patch); err != nil {
			return nil, err
		}
		return stock.Clone(), nil
	}
	return nil, domain.ErrNotFound
}

// UpdateMany applies the patch to every matching record
func (r *StockRepository) UpdateMany(ctx context.Context, filter domain.StockFilter, patch domain.StockPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, stock := range r.stocks {
		if !matches(filter, stock) {
			continue
		}
		if err := r.applyLocked(stock, patch); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// DeleteOne removes a single matching record and returns it
func (r *StockRepository) DeleteOne(ctx context.Context, filter domain.StockFilter) (*domain.UserStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, stock := range r.stocks {
		if matches(filter, stock) {
			delete(r.stocks, id)
			return stock, nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteMany removes every matching record and returns the count
func (r *StockRepository) DeleteMany(ctx context.Context, filter domain.StockFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, stock := range r.stocks {
		if matches(filter, stock) {
			delete(r.stocks, id)
			count++
		}
	}
	return count, nil
}

// applyLocked mutates a stored record in place, honoring the unique
// (owner, ticker) rule when the patch renames the ticker
func (r *StockRepository) applyLocked(stock *domain.UserStock, patch domain.StockPatch) error {
	if patch.Ticker != nil && *patch.Ticker != stock.Ticker {
		for _, existing := range r.stocks {
			if existing.ID != stock.ID && existing.OwnerID == stock.OwnerID && existing.Ticker == *patch.Ticker {
				return domain.ErrDuplicate
			}
		}
		stock.Ticker = *patch.Ticker
	}
	if patch.Category != nil {
		stock.Category = *patch.Category
	}
	if patch.Quantity != nil {
		stock.Quantity = *patch.Quantity
	}
	if patch.AvgPrice != nil {
		stock.AvgPrice = *patch.AvgPrice
	}
	if patch.SetAIReport {
		if patch.AIReport != nil {
			report := *patch.AIReport
			stock.AIReport = &report
		} else {
			stock.AIReport = nil
		}
	}
	return nil
}

// matches evaluates the filter's exact-match conjunction
func matches(filter domain.StockFilter, stock *domain.UserStock) bool {
	if filter.ID != nil && *filter.ID != stock.ID {
		return false
	}
	if filter.OwnerID != nil && *filter.OwnerID != stock.OwnerID {
		return false
	}
	if filter.Ticker != nil && *filter.Ticker != stock.Ticker {
		return false
	}
	if filter.Category != nil && *filter.Category != stock.Category {
		return false
	}
	return true
}
