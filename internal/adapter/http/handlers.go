package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/backend/internal/domain"
	"github.com/stockfolio/backend/internal/usecase/stocks"
)

// StockHandlers contains the HTTP handlers for the stock portfolio API
type StockHandlers struct {
	service *stocks.PortfolioService
	log     zerolog.Logger
}

// NewStockHandlers creates a new stock handlers instance
func NewStockHandlers(service *stocks.PortfolioService, log zerolog.Logger) *StockHandlers {
	return &StockHandlers{
		service: service,
		log:     log.With().Str("handler", "stocks").Logger(),
	}
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type createStockRequest struct {
	Ticker   string `json:"ticker"`
	Category string `json:"category"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type holdingRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avgPrice"`
}

type aiReportRequest struct {
	AIReport *domain.AIReport `json:"aiReport"`
}

// tickerUpdateRequest is the allow-list for the generic ticker update
// path. Decoded with DisallowUnknownFields so a payload carrying anything
// else (userId included) is rejected as a validation error.
type tickerUpdateRequest struct {
	Category *string          `json:"category"`
	Quantity *decimal.Decimal `json:"quantity"`
	AvgPrice *decimal.Decimal `json:"avgPrice"`
	AIReport *domain.AIReport `json:"aiReport"`
}

type bulkMoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ListMyStocks handles GET /api/stocks/my-stocks
func (h *StockHandlers) ListMyStocks(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	result, err := h.service.ListAll(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListForUser handles GET /api/stocks/user/{userID}. The owner id is
// asserted explicitly in the path, so a mismatch is an explicit Forbidden
// rather than the uniform NotFound of the id-scoped routes.
func (h *StockHandlers) ListForUser(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	if err := h.service.Guard.AssertOwner(chi.URLParam(r, "userID"), owner); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.ListAll(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateStock handles POST /api/stocks/
func (h *StockHandlers) CreateStock(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	var req createStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	stock, err := h.service.Create(r.Context(), owner, stocks.CreateStockInput{
		Ticker:   req.Ticker,
		Category: req.Category,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stock)
}

// BulkCreateStocks handles POST /api/stocks/bulk. On partial failure the
// response reports the successfully inserted prefix and the failing index;
// the caller reissues the remainder.
func (h *StockHandlers) BulkCreateStocks(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	var reqs []createStockRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "request body must be an array", Error: err.Error()})
		return
	}

	inputs := make([]stocks.CreateStockInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, stocks.CreateStockInput{Ticker: req.Ticker, Category: req.Category})
	}

	inserted, err := h.service.BulkCreate(r.Context(), owner, inputs)
	if err != nil {
		var bulkErr *domain.BulkInsertError
		if errors.As(err, &bulkErr) {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"message":     "error in bulk insert",
				"data":        bulkErr.Inserted,
				"failedIndex": bulkErr.FailedIndex,
				"error":       bulkErr.Err.Error(),
			})
			return
		}
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": fmt.Sprintf("Inserted %d stocks", len(inserted)),
		"data":    inserted,
	})
}

// GetStockByID handles GET /api/stocks/id/{id}
func (h *StockHandlers) GetStockByID(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stock, err := h.service.GetByID(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// GetStockByTicker handles GET /api/stocks/detail/{ticker}
func (h *StockHandlers) GetStockByTicker(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	stock, err := h.service.GetByTicker(r.Context(), owner, chi.URLParam(r, "ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// FilterByCategory handles GET /api/stocks/filter/{userID}/{category}
func (h *StockHandlers) FilterByCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	if err := h.service.Guard.AssertOwner(chi.URLParam(r, "userID"), owner); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.ListByCategory(r.Context(), owner, chi.URLParam(r, "category"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetCategory handles PUT /api/stocks/{id}/category
func (h *StockHandlers) SetCategory(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	stock, err := h.service.SetCategory(r.Context(), owner, id, req.Category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// MarkHolding handles PUT /api/stocks/{id}/holding
func (h *StockHandlers) MarkHolding(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	stock, err := h.service.TransitionToHolding(r.Context(), owner, id, req.Quantity, req.AvgPrice)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// MarkWishlist handles PUT /api/stocks/{id}/wishlist
func (h *StockHandlers) MarkWishlist(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stock, err := h.service.TransitionToWishlist(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// AttachAIReport handles PUT /api/stocks/{id}/ai-report
func (h *StockHandlers) AttachAIReport(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req aiReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	stock, err := h.service.AttachAIReport(r.Context(), owner, id, req.AIReport)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// UpdateByTicker handles PUT /api/stocks/user/{userID}/ticker/{ticker}
func (h *StockHandlers) UpdateByTicker(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	if err := h.service.Guard.AssertOwner(chi.URLParam(r, "userID"), owner); err != nil {
		h.writeError(w, err)
		return
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req tickerUpdateRequest
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "payload contains unsupported fields", Error: err.Error()})
		return
	}

	stock, err := h.service.UpdateByTicker(r.Context(), owner, chi.URLParam(r, "ticker"), stocks.TickerUpdateInput{
		Category: req.Category,
		Quantity: req.Quantity,
		AvgPrice: req.AvgPrice,
		AIReport: req.AIReport,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// BulkCategoryMove handles PUT /api/stocks/user/{userID}/category
func (h *StockHandlers) BulkCategoryMove(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	if err := h.service.Guard.AssertOwner(chi.URLParam(r, "userID"), owner); err != nil {
		h.writeError(w, err)
		return
	}

	var req bulkMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body", Error: err.Error()})
		return
	}

	count, err := h.service.BulkCategoryMove(r.Context(), owner, req.From, req.To)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"modifiedCount": count})
}

// DeleteByID handles DELETE /api/stocks/id/{id}
func (h *StockHandlers) DeleteByID(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	id, err := parseID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	stock, err := h.service.DeleteByID(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Deleted",
		"deletedStock": stock,
	})
}

// DeleteByTicker handles DELETE /api/stocks/user/{userID}/ticker/{ticker}
func (h *StockHandlers) DeleteByTicker(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	if err := h.service.Guard.AssertOwner(chi.URLParam(r, "userID"), owner); err != nil {
		h.writeError(w, err)
		return
	}

	stock, err := h.service.DeleteByTicker(r.Context(), owner, chi.URLParam(r, "ticker"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Deleted",
		"deletedStock": stock,
	})
}

// DeleteAllForUser handles DELETE /api/stocks/user/{userID}
func (h *StockHandlers) DeleteAllForUser(w http.ResponseWriter, r *http.Request) {
	owner, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "not authorized"})
		return
	}

	if err := h.service.Guard.AssertOwner(chi.URLParam(r, "userID"), owner); err != nil {
		h.writeError(w, err)
		return
	}

	count, err := h.service.DeleteAllForOwner(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      fmt.Sprintf("Deleted %d stocks", count),
		"deletedCount": count,
	})
}

// parseID extracts and validates the {id} path parameter
func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", domain.ErrValidation)
	}
	return id, nil
}

// writeError maps engine errors to HTTP statuses. NotFound deliberately
// covers cross-owner access so the response never leaks whether another
// user's record exists.
func (h *StockHandlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "access denied: you can only manage your own stocks"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "stock not found"})
	case domain.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request", Error: err.Error()})
	default:
		h.log.Error().Err(err).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

// writeJSON encodes a response body
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // response already committed
}
