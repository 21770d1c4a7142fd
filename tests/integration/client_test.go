//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/backend/internal/domain"
)

// apiClient is a thin helper over the test server for one authenticated user
type apiClient struct {
	token string
}

func newClient(token string) *apiClient {
	return &apiClient{token: token}
}

type bulkFailureResponse struct {
	Message     string             `json:"message"`
	Data        []domain.UserStock `json:"data"`
	FailedIndex int                `json:"failedIndex"`
}

func (c *apiClient) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (c *apiClient) doStock(t *testing.T, method, path string, body interface{}, wantStatus int) domain.UserStock {
	t.Helper()

	resp, raw := c.do(t, method, path, body)
	require.Equal(t, wantStatus, resp.StatusCode, "body: %s", raw)

	var stock domain.UserStock
	require.NoError(t, json.Unmarshal(raw, &stock))
	return stock
}

func (c *apiClient) createStock(t *testing.T, ticker, category string) domain.UserStock {
	t.Helper()
	body := map[string]string{"ticker": ticker}
	if category != "" {
		body["category"] = category
	}
	return c.doStock(t, http.MethodPost, "/api/stocks/", body, http.StatusCreated)
}

func (c *apiClient) bulkCreate(t *testing.T, tickers []string) (int, bulkFailureResponse) {
	t.Helper()
	body := make([]map[string]string, 0, len(tickers))
	for _, ticker := range tickers {
		body = append(body, map[string]string{"ticker": ticker})
	}

	resp, raw := c.do(t, http.MethodPost, "/api/stocks/bulk", body)

	var parsed bulkFailureResponse
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return resp.StatusCode, parsed
}

func (c *apiClient) markHolding(t *testing.T, id uuid.UUID, quantity, avgPrice string) domain.UserStock {
	t.Helper()
	return c.doStock(t, http.MethodPut, fmt.Sprintf("/api/stocks/%s/holding", id),
		map[string]string{"quantity": quantity, "avgPrice": avgPrice}, http.StatusOK)
}

func (c *apiClient) markWishlist(t *testing.T, id uuid.UUID) domain.UserStock {
	t.Helper()
	return c.doStock(t, http.MethodPut, fmt.Sprintf("/api/stocks/%s/wishlist", id), nil, http.StatusOK)
}

func (c *apiClient) attachReport(t *testing.T, id uuid.UUID, recommendation, summary string) domain.UserStock {
	t.Helper()
	return c.doStock(t, http.MethodPut, fmt.Sprintf("/api/stocks/%s/ai-report", id),
		map[string]interface{}{
			"aiReport": map[string]string{
				"recommendation": recommendation,
				"summary":        summary,
			},
		}, http.StatusOK)
}

func (c *apiClient) getByTicker(t *testing.T, ticker string) domain.UserStock {
	t.Helper()
	return c.doStock(t, http.MethodGet, "/api/stocks/detail/"+ticker, nil, http.StatusOK)
}

func (c *apiClient) getByIDStatus(t *testing.T, id uuid.UUID) int {
	t.Helper()
	resp, _ := c.do(t, http.MethodGet, "/api/stocks/id/"+id.String(), nil)
	return resp.StatusCode
}

func (c *apiClient) listForUserStatus(t *testing.T, userID string) int {
	t.Helper()
	resp, _ := c.do(t, http.MethodGet, "/api/stocks/user/"+userID, nil)
	return resp.StatusCode
}

func (c *apiClient) listAll(t *testing.T) []domain.UserStock {
	t.Helper()
	resp, raw := c.do(t, http.MethodGet, "/api/stocks/my-stocks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var all []domain.UserStock
	require.NoError(t, json.Unmarshal(raw, &all))
	return all
}

func (c *apiClient) filterByCategory(t *testing.T, userID, category string) []domain.UserStock {
	t.Helper()
	resp, raw := c.do(t, http.MethodGet, fmt.Sprintf("/api/stocks/filter/%s/%s", userID, category), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result []domain.UserStock
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

func (c *apiClient) bulkMove(t *testing.T, userID, from, to string) int64 {
	t.Helper()
	resp, raw := c.do(t, http.MethodPut, fmt.Sprintf("/api/stocks/user/%s/category", userID),
		map[string]string{"from": from, "to": to})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		ModifiedCount int64 `json:"modifiedCount"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return parsed.ModifiedCount
}

func (c *apiClient) deleteByID(t *testing.T, id uuid.UUID) domain.UserStock {
	t.Helper()
	resp, raw := c.do(t, http.MethodDelete, "/api/stocks/id/"+id.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		DeletedStock domain.UserStock `json:"deletedStock"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return parsed.DeletedStock
}

func (c *apiClient) deleteAll(t *testing.T) {
	t.Helper()
	// best-effort cleanup; the owner id is resolved from the token
	userID := map[string]string{
		tokenU1: "integration-u1",
		tokenU2: "integration-u2",
	}[c.token]
	c.do(t, http.MethodDelete, "/api/stocks/user/"+userID, nil)
}
