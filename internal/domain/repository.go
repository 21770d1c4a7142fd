package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockFilter is a conjunction of exact-match predicates. Nil fields are
// not part of the filter. Ticker values must already be normalized.
type StockFilter struct {
	ID       *uuid.UUID
	OwnerID  *string
	Ticker   *string
	Category *Category
}

// StockPatch is a partial update. Nil fields are left untouched.
// SetAIReport distinguishes "replace the report with this value (possibly
// nil)" from "leave the report alone", since the report is replaced
// wholesale, never merged.
type StockPatch struct {
	Ticker      *string
	Category    *Category
	Quantity    *decimal.Decimal
	AvgPrice    *decimal.Decimal
	AIReport    *AIReport
	SetAIReport bool
}

// IsZero reports whether the patch would change nothing
func (p StockPatch) IsZero() bool {
	return p.Ticker == nil && p.Category == nil && p.Quantity == nil &&
		p.AvgPrice == nil && !p.SetAIReport
}

// StockRepository defines the interface for stock persistence operations.
// Each call is atomic at the store; the engine adds no transactional
// wrapping across calls.
type StockRepository interface {
	// Insert stores a new record. Colliding with an existing
	// (owner, ticker) pair fails with ErrDuplicate.
	Insert(ctx context.Context, stock *UserStock) (*UserStock, error)

	// InsertBulk stores multiple records. With ordered=true it stops at
	// the first failing element and returns a *BulkInsertError carrying
	// the inserted prefix; with ordered=false it attempts every element
	// and reports the first failure the same way.
	InsertBulk(ctx context.Context, stocks []*UserStock, ordered bool) ([]*UserStock, error)

	// FindByID retrieves a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*UserStock, error)

	// FindOne retrieves a single record matching the filter, or ErrNotFound
	FindOne(ctx context.Context, filter StockFilter) (*UserStock, error)

	// FindMany retrieves all records matching the filter; order is not
	// guaranteed
	FindMany(ctx context.Context, filter StockFilter) ([]*UserStock, error)

	// UpdateOne applies the patch to a single record matching the filter
	// and returns the updated record, or ErrNotFound
	UpdateOne(ctx context.Context, filter StockFilter, patch StockPatch) (*UserStock, error)

	// UpdateMany applies the patch to every record matching the filter and
	// returns the number of records changed
	UpdateMany(ctx context.Context, filter StockFilter, patch StockPatch) (int64, error)

	// DeleteOne removes a single record matching the filter and returns
	// the deleted record, or ErrNotFound
	DeleteOne(ctx context.Context, filter StockFilter) (*UserStock, error)

	// DeleteMany removes every record matching the filter and returns the
	// number of records removed
	DeleteMany(ctx context.Context, filter StockFilter) (int64, error)
}
