package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUserStock_Validate(t *testing.T) {
	tests := []struct {
		name    string
		stock   UserStock
		wantErr bool
		errMsg  string
	}{
		{
			name: "Valid wishlist stock should pass",
			stock: UserStock{
				ID:       uuid.New(),
				OwnerID:  "user-1",
				Ticker:   "AAPL",
				Category: CategoryWishlist,
				Quantity: decimal.Zero,
				AvgPrice: decimal.Zero,
			},
			wantErr: false,
		},
		{
			name: "Valid holding stock should pass",
			stock: UserStock{
				ID:       uuid.New(),
				OwnerID:  "user-1",
				Ticker:   "TSLA",
				Category: CategoryHolding,
				Quantity: decimal.NewFromInt(10),
				AvgPrice: decimal.NewFromFloat(250.5),
			},
			wantErr: false,
		},
		{
			name: "Stock without owner should fail",
			stock: UserStock{
				ID:       uuid.New(),
				Ticker:   "AAPL",
				Category: CategoryWishlist,
			},
			wantErr: true,
			errMsg:  "owner id is required",
		},
		{
			name: "Stock with empty ticker should fail",
			stock: UserStock{
				ID:       uuid.New(),
				OwnerID:  "user-1",
				Ticker:   "",
				Category: CategoryWishlist,
			},
			wantErr: true,
			errMsg:  "ticker is required",
		},
		{
			name: "Stock with lowercase ticker should fail",
			stock: UserStock{
				ID:       uuid.New(),
				OwnerID:  "user-1",
				Ticker:   "aapl",
				Category: CategoryWishlist,
			},
			wantErr: true,
			errMsg:  "ticker must be uppercase",
		},
		{
			name: "Stock with unknown category should fail",
			stock: UserStock{
				ID:       uuid.New(),
				OwnerID:  "user-1",
				Ticker:   "AAPL",
				Category: Category("watchlist"),
			},
			wantErr: true,
			errMsg:  "unknown category",
		},
		{
			name: "Stock with valid AI report should pass",
			stock: UserStock{
				ID:       uuid.New(),
				OwnerID:  "user-1",
				Ticker:   "AAPL",
				Category: CategoryWishlist,
				AIReport: &AIReport{
					Recommendation: RecommendationBuy,
					Summary:        "Strong fundamentals",
				},
			},
			wantErr: false,
		},
		{
			name: "Stock with unknown recommendation should fail",
			stock: UserStock{
				ID:       uuid.New(),
				OwnerID:  "user-1",
				Ticker:   "AAPL",
				Category: CategoryWishlist,
				AIReport: &AIReport{
					Recommendation: Recommendation("STRONG_BUY"),
				},
			},
			wantErr: true,
			errMsg:  "unknown recommendation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.stock.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, IsValidation(err), "expected a validation-class error")
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"aapl", "AAPL"},
		{"Aapl", "AAPL"},
		{"AAPL", "AAPL"},
		{"  tsla ", "TSLA"},
		{"reliance.ns", "RELIANCE.NS"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeTicker(tt.input))
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
		wantErr  bool
	}{
		{"wishlist", CategoryWishlist, false},
		{"holding", CategoryHolding, false},
		{"WISHLIST", CategoryWishlist, false},
		{"Holding", CategoryHolding, false},
		{" holding ", CategoryHolding, false},
		{"watchlist", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		if tt.wantErr {
			assert.Error(t, err)
			assert.True(t, IsValidation(err))
		} else {
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		}
	}
}

func TestUserStock_Clone(t *testing.T) {
	original := &UserStock{
		ID:       uuid.New(),
		OwnerID:  "user-1",
		Ticker:   "AAPL",
		Category: CategoryHolding,
		Quantity: decimal.NewFromInt(5),
		AvgPrice: decimal.NewFromInt(180),
		AIReport: &AIReport{Recommendation: RecommendationHold},
	}

	clone := original.Clone()
	clone.Ticker = "MSFT"
	clone.AIReport.Recommendation = RecommendationSell

	assert.Equal(t, "AAPL", original.Ticker, "clone must not alias the original")
	assert.Equal(t, RecommendationHold, original.AIReport.Recommendation,
		"clone must not alias the original's report")
}
