package stocks

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/stockfolio/backend/internal/domain"
)

func TestOwnershipGuard_ScopeFilter(t *testing.T) {
	guard := OwnershipGuard{}

	t.Run("injects owner into empty filter", func(t *testing.T) {
		scoped := guard.ScopeFilter("u1", domain.StockFilter{})
		assert.NotNil(t, scoped.OwnerID)
		assert.Equal(t, "u1", *scoped.OwnerID)
	})

	t.Run("overwrites caller-supplied owner", func(t *testing.T) {
		other := "u2"
		scoped := guard.ScopeFilter("u1", domain.StockFilter{OwnerID: &other})
		assert.Equal(t, "u1", *scoped.OwnerID)
	})

	t.Run("preserves other filter fields", func(t *testing.T) {
		id := uuid.New()
		ticker := "AAPL"
		scoped := guard.ScopeFilter("u1", domain.StockFilter{ID: &id, Ticker: &ticker})
		assert.Equal(t, "u1", *scoped.OwnerID)
		assert.Equal(t, id, *scoped.ID)
		assert.Equal(t, "AAPL", *scoped.Ticker)
	})
}

func TestOwnershipGuard_ForceOwner(t *testing.T) {
	guard := OwnershipGuard{}

	stock := &domain.UserStock{OwnerID: "attacker"}
	guard.ForceOwner("u1", stock)
	assert.Equal(t, "u1", stock.OwnerID)
}

func TestOwnershipGuard_AssertOwner(t *testing.T) {
	guard := OwnershipGuard{}

	assert.NoError(t, guard.AssertOwner("u1", "u1"))
	assert.ErrorIs(t, guard.AssertOwner("u2", "u1"), domain.ErrForbidden)
	assert.ErrorIs(t, guard.AssertOwner("", "u1"), domain.ErrForbidden)
}
