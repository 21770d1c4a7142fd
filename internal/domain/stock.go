package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents the lifecycle state of a tracked stock
type Category string

const (
	// CategoryWishlist means the stock is tracked but not owned
	CategoryWishlist Category = "wishlist"
	// CategoryHolding means the stock is owned, with quantity and cost basis
	CategoryHolding Category = "holding"
)

// ParseCategory normalizes a caller-supplied category to lowercase and
// validates it against the known set
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryWishlist, CategoryHolding:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, s)
	}
}

// Recommendation is the verdict carried by an AI report snapshot
type Recommendation string

const (
	RecommendationBuy     Recommendation = "BUY"
	RecommendationSell    Recommendation = "SELL"
	RecommendationHold    Recommendation = "HOLD"
	RecommendationNeutral Recommendation = "NEUTRAL"
)

// AIReport is an attached analysis snapshot. The engine stores and returns
// it opaquely; only the shape is validated, never the content.
type AIReport struct {
	Recommendation Recommendation `json:"recommendation,omitempty"`
	Summary        string         `json:"summary,omitempty"`
	LastUpdated    time.Time      `json:"lastUpdated"`
}

// Validate checks the report shape
func (r *AIReport) Validate() error {
	switch r.Recommendation {
	case "", RecommendationBuy, RecommendationSell, RecommendationHold, RecommendationNeutral:
		return nil
	default:
		return fmt.Errorf("%w: unknown recommendation %q", ErrValidation, r.Recommendation)
	}
}

// UserStock is one user's tracked or owned position in a single ticker.
// OwnerID is always derived from the resolved caller identity, never from
// request payloads.
type UserStock struct {
	ID       uuid.UUID       `json:"id"`
	OwnerID  string          `json:"userId"`
	Ticker   string          `json:"ticker"`
	Category Category        `json:"category"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avgPrice"`
	AIReport *AIReport       `json:"aiReport,omitempty"`
}

// NormalizeTicker uppercases a ticker symbol. Applied on every write and on
// every lookup-by-ticker so that "aapl" and "AAPL" address the same record.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Validate ensures the stock adheres to domain rules
func (s *UserStock) Validate() error {
	if s.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", ErrValidation)
	}

	if s.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrValidation)
	}
	if s.Ticker != NormalizeTicker(s.Ticker) {
		return fmt.Errorf("%w: ticker must be uppercase", ErrValidation)
	}

	if s.Category != CategoryWishlist && s.Category != CategoryHolding {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, s.Category)
	}

	if s.AIReport != nil {
		return s.AIReport.Validate()
	}

	return nil
}

// Clone returns a deep copy of the stock
func (s *UserStock) Clone() *UserStock {
	c := *s
	if s.AIReport != nil {
		report := *s.AIReport
		c.AIReport = &report
	}
	return &c
}
