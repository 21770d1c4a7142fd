package stocks

import (
	"github.com/stockfolio/backend/internal/domain"
)

// OwnershipGuard constrains every store access to the caller's own records.
// It has two enforcement points: filter injection, which pins every read,
// update, and delete to the resolved identity so that a non-owned record is
// indistinguishable from a non-existent one; and write injection, which
// forces the owner on every create, silently discarding any caller-supplied
// owner value.
type OwnershipGuard struct{}

// ScopeFilter intersects a filter with the caller identity. Any owner value
// already present in the filter is overwritten.
func (OwnershipGuard) ScopeFilter(ownerID string, filter domain.StockFilter) domain.StockFilter {
	filter.OwnerID = &ownerID
	return filter
}

// ForceOwner stamps the caller identity onto a record about to be created
func (OwnershipGuard) ForceOwner(ownerID string, stock *domain.UserStock) {
	stock.OwnerID = ownerID
}

// AssertOwner rejects an explicitly asserted owner identifier that does not
// match the resolved identity. Used only where the request shape carries an
// owner id directly (the /user/{userID}/... routes); id- and ticker-scoped
// operations collapse cross-owner access to ErrNotFound instead.
func (OwnershipGuard) AssertOwner(claimedID, resolvedID string) error {
	if claimedID != resolvedID {
		return domain.ErrForbidden
	}
	return nil
}
