package stocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockfolio/backend/internal/domain"
)

// CreateStockInput represents the input for creating a single stock record.
// Category is optional and defaults to wishlist. Any owner information a
// caller might try to smuggle in is simply not representable here; the
// owner always comes from the resolved identity.
type CreateStockInput struct {
	Ticker   string
	Category string
}

// TickerUpdateInput is the allow-listed patch for UpdateByTicker. Only
// these fields are mutable through the generic update path; the transport
// rejects payloads carrying anything else.
type TickerUpdateInput struct {
	Category *string
	Quantity *decimal.Decimal
	AvgPrice *decimal.Decimal
	AIReport *domain.AIReport
}

// PortfolioService is the portfolio record lifecycle engine. Every
// operation is owner-scoped through the guard; the service performs no
// in-process locking and relies on the store's per-call atomicity.
type PortfolioService struct {
	Repo  domain.StockRepository
	Guard OwnershipGuard
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(repo domain.StockRepository) *PortfolioService {
	return &PortfolioService{Repo: repo}
}

// Create inserts a new record for the owner. The ticker is uppercased, the
// category defaults to wishlist, and quantity/avgPrice start at zero.
func (s *PortfolioService) Create(ctx context.Context, ownerID string, input CreateStockInput) (*domain.UserStock, error) {
	stock, err := s.buildStock(ownerID, input)
	if err != nil {
		return nil, err
	}
	return s.Repo.Insert(ctx, stock)
}

// BulkCreate performs an ordered bulk insert, forcing the owner on every
// element. On partial failure the returned error is a *domain.BulkInsertError
// carrying the successfully inserted prefix; prior insertions are not rolled
// back.
func (s *PortfolioService) BulkCreate(ctx context.Context, ownerID string, inputs []CreateStockInput) ([]*domain.UserStock, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: bulk payload must be a non-empty array", domain.ErrValidation)
	}

	records := make([]*domain.UserStock, 0, len(inputs))
	for i, input := range inputs {
		stock, err := s.buildStock(ownerID, input)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		records = append(records, stock)
	}

	return s.Repo.InsertBulk(ctx, records, true)
}

// buildStock validates and assembles a record ready for insertion
func (s *PortfolioService) buildStock(ownerID string, input CreateStockInput) (*domain.UserStock, error) {
	category := domain.CategoryWishlist
	if input.Category != "" {
		parsed, err := domain.ParseCategory(input.Category)
		if err != nil {
			return nil, err
		}
		category = parsed
	}

	stock := &domain.UserStock{
		ID:       uuid.New(),
		Ticker:   domain.NormalizeTicker(input.Ticker),
		Category: category,
		Quantity: decimal.Zero,
		AvgPrice: decimal.Zero,
	}
	s.Guard.ForceOwner(ownerID, stock)

	if err := stock.Validate(); err != nil {
		return nil, err
	}
	return stock, nil
}

// TransitionToHolding marks an owned record as held with the given quantity
// and average price. The values pass through as supplied; this operation
// performs no non-negativity re-validation.
func (s *PortfolioService) TransitionToHolding(ctx context.Context, ownerID string, id uuid.UUID, quantity, avgPrice decimal.Decimal) (*domain.UserStock, error) {
	holding := domain.CategoryHolding
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{ID: &id})
	return s.Repo.UpdateOne(ctx, filter, domain.StockPatch{
		Category: &holding,
		Quantity: &quantity,
		AvgPrice: &avgPrice,
	})
}

// TransitionToWishlist moves an owned record back to the wishlist,
// unconditionally zeroing quantity and avgPrice. Idempotent.
func (s *PortfolioService) TransitionToWishlist(ctx context.Context, ownerID string, id uuid.UUID) (*domain.UserStock, error) {
	wishlist := domain.CategoryWishlist
	zero := decimal.Zero
	zeroPrice := decimal.Zero
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{ID: &id})
	return s.Repo.UpdateOne(ctx, filter, domain.StockPatch{
		Category: &wishlist,
		Quantity: &zero,
		AvgPrice: &zeroPrice,
	})
}

// SetCategory overwrites the category directly, without the quantity and
// avgPrice side effects of the two transitions above. A record moved to
// wishlist this way keeps its holding figures; callers relying on the reset
// must use TransitionToWishlist.
func (s *PortfolioService) SetCategory(ctx context.Context, ownerID string, id uuid.UUID, category string) (*domain.UserStock, error) {
	parsed, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{ID: &id})
	return s.Repo.UpdateOne(ctx, filter, domain.StockPatch{Category: &parsed})
}

// AttachAIReport replaces the record's AI report wholesale; there is no
// merge with a prior value. A zero LastUpdated is defaulted to now.
func (s *PortfolioService) AttachAIReport(ctx context.Context, ownerID string, id uuid.UUID, report *domain.AIReport) (*domain.UserStock, error) {
	if report != nil {
		if err := report.Validate(); err != nil {
			return nil, err
		}
		if report.LastUpdated.IsZero() {
			report.LastUpdated = time.Now().UTC()
		}
	}
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{ID: &id})
	return s.Repo.UpdateOne(ctx, filter, domain.StockPatch{
		AIReport:    report,
		SetAIReport: true,
	})
}

// UpdateByTicker applies an allow-listed patch to the owner's record for a
// ticker. Fields outside the allow-list never reach this call; the owner
// cannot change because the filter already pins ownership.
func (s *PortfolioService) UpdateByTicker(ctx context.Context, ownerID, ticker string, input TickerUpdateInput) (*domain.UserStock, error) {
	patch := domain.StockPatch{
		Quantity: input.Quantity,
		AvgPrice: input.AvgPrice,
	}

	if input.Category != nil {
		parsed, err := domain.ParseCategory(*input.Category)
		if err != nil {
			return nil, err
		}
		patch.Category = &parsed
	}

	if input.AIReport != nil {
		if err := input.AIReport.Validate(); err != nil {
			return nil, err
		}
		if input.AIReport.LastUpdated.IsZero() {
			input.AIReport.LastUpdated = time.Now().UTC()
		}
		patch.AIReport = input.AIReport
		patch.SetAIReport = true
	}

	if patch.IsZero() {
		return nil, fmt.Errorf("%w: no updatable fields in payload", domain.ErrValidation)
	}

	normalized := domain.NormalizeTicker(ticker)
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{Ticker: &normalized})
	return s.Repo.UpdateOne(ctx, filter, patch)
}

// BulkCategoryMove changes every owner record in fromCategory to toCategory
// and returns the number of records changed. Unlike TransitionToWishlist it
// applies no quantity/avgPrice reset, so a bulk move to wishlist can leave
// stale holding figures behind.
func (s *PortfolioService) BulkCategoryMove(ctx context.Context, ownerID, fromCategory, toCategory string) (int64, error) {
	from, err := domain.ParseCategory(fromCategory)
	if err != nil {
		return 0, err
	}
	to, err := domain.ParseCategory(toCategory)
	if err != nil {
		return 0, err
	}

	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{Category: &from})
	return s.Repo.UpdateMany(ctx, filter, domain.StockPatch{Category: &to})
}

// DeleteByID removes an owned record by id and returns it
func (s *PortfolioService) DeleteByID(ctx context.Context, ownerID string, id uuid.UUID) (*domain.UserStock, error) {
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{ID: &id})
	return s.Repo.DeleteOne(ctx, filter)
}

// DeleteByTicker removes the owner's record for a ticker and returns it
func (s *PortfolioService) DeleteByTicker(ctx context.Context, ownerID, ticker string) (*domain.UserStock, error) {
	normalized := domain.NormalizeTicker(ticker)
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{Ticker: &normalized})
	return s.Repo.DeleteOne(ctx, filter)
}

// DeleteAllForOwner removes every record belonging to the owner and returns
// the count. Irreversible; there is no soft delete.
func (s *PortfolioService) DeleteAllForOwner(ctx context.Context, ownerID string) (int64, error) {
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{})
	return s.Repo.DeleteMany(ctx, filter)
}

// GetByID retrieves an owned record by id
func (s *PortfolioService) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*domain.UserStock, error) {
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{ID: &id})
	return s.Repo.FindOne(ctx, filter)
}

// GetByTicker retrieves the owner's record for a ticker; the lookup is
// normalized so "aapl" and "AAPL" resolve to the same record
func (s *PortfolioService) GetByTicker(ctx context.Context, ownerID, ticker string) (*domain.UserStock, error) {
	normalized := domain.NormalizeTicker(ticker)
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{Ticker: &normalized})
	return s.Repo.FindOne(ctx, filter)
}

// ListByCategory retrieves all owner records in a category
func (s *PortfolioService) ListByCategory(ctx context.Context, ownerID, category string) ([]*domain.UserStock, error) {
	parsed, err := domain.ParseCategory(category)
	if err != nil {
		return nil, err
	}
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{Category: &parsed})
	return s.Repo.FindMany(ctx, filter)
}

// ListAll retrieves every record belonging to the owner
func (s *PortfolioService) ListAll(ctx context.Context, ownerID string) ([]*domain.UserStock, error) {
	filter := s.Guard.ScopeFilter(ownerID, domain.StockFilter{})
	return s.Repo.FindMany(ctx, filter)
}
