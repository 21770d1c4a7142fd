package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stockfolio/backend/internal/domain"
)

const stockColumns = "id, owner_id, ticker, category, quantity, avg_price, ai_report"

// stockRepository implements domain.StockRepository
type stockRepository struct {
	db *DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *DB) domain.StockRepository {
	return &stockRepository{db: db}
}

// Insert stores a new record
func (r *stockRepository) Insert(ctx context.Context, stock *domain.UserStock) (*domain.UserStock, error) {
	query := `
		INSERT INTO user_stocks (id, owner_id, ticker, category, quantity, avg_price, ai_report)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	report, err := marshalReport(stock.AIReport)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, query,
		stock.ID,
		stock.OwnerID,
		stock.Ticker,
		string(stock.Category),
		stock.Quantity.String(),
		stock.AvgPrice.String(),
		report,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicate, stock.Ticker)
		}
		return nil, fmt.Errorf("failed to insert stock: %w", err)
	}

	return stock, nil
}

// InsertBulk stores records one statement at a time so that an element
// failure leaves the already-inserted prefix in place, matching the store
// contract. Ordered inserts stop at the first failure.
func (r *stockRepository) InsertBulk(ctx context.Context, stocks []*domain.UserStock, ordered bool) ([]*domain.UserStock, error) {
	inserted := make([]*domain.UserStock, 0, len(stocks))
	var firstErr error
	failedIndex := -1

	for i, stock := range stocks {
		saved, err := r.Insert(ctx, stock)
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
func (r *stockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserStock, error) {
	return r.FindOne(ctx, domain.StockFilter{ID: &id})
}

// FindOne retrieves a single record matching the filter
func (r *stockRepository) FindOne(ctx context.Context, filter domain.StockFilter) (*domain.UserStock, error) {
	where, args := whereClause(filter, 1)
	query := fmt.Sprintf("SELECT %s FROM user_stocks WHERE %s LIMIT 1", stockColumns, where)

	stock, err := scanStock(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find stock: %w", err)
	}
	return stock, nil
}

// FindMany retrieves all records matching the filter
func (r *stockRepository) FindMany(ctx context.Context, filter domain.StockFilter) ([]*domain.UserStock, error) {
	where, args := whereClause(filter, 1)
	query := fmt.Sprintf("SELECT %s FROM user_stocks WHERE %s", stockColumns, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]*domain.UserStock, 0)
	for rows.Next() {
		stock, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stocks: %w", err)
	}
	return stocks, nil
}

// UpdateOne applies the patch to a single record matching the filter. The
// filter-then-update runs as one statement, so it is atomic at the store.
func (r *stockRepository) UpdateOne(ctx context.Context, filter domain.StockFilter, patch domain.StockPatch) (*domain.UserStock, error) {
	set, args, err := setClause(patch, 1)
	if err != nil {
		return nil, err
	}
	where, whereArgs := whereClause(filter, len(args)+1)
	args = append(args, whereArgs...)

	query := fmt.Sprintf(`
		UPDATE user_stocks SET %s
		WHERE id = (SELECT id FROM user_stocks WHERE %s LIMIT 1)
		RETURNING %s
	`, set, where, stockColumns)

	stock, err := scanStock(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	return stock, nil
}

// UpdateMany applies the patch to every record matching the filter
func (r *stockRepository) UpdateMany(ctx context.Context, filter domain.StockFilter, patch domain.StockPatch) (int64, error) {
	set, args, err := setClause(patch, 1)
	if err != nil {
		return 0, err
	}
	where, whereArgs := whereClause(filter, len(args)+1)
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE user_stocks SET %s WHERE %s", set, where)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update stocks: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count updated stocks: %w", err)
	}
	return count, nil
}

// DeleteOne removes a single record matching the filter and returns it
func (r *stockRepository) DeleteOne(ctx context.Context, filter domain.StockFilter) (*domain.UserStock, error) {
	where, args := whereClause(filter, 1)
	query := fmt.Sprintf(`
		DELETE FROM user_stocks
		WHERE id = (SELECT id FROM user_stocks WHERE %s LIMIT 1)
		RETURNING %s
	`, where, stockColumns)

	stock, err := scanStock(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete stock: %w", err)
	}
	return stock, nil
}

// DeleteMany removes every record matching the filter
func (r *stockRepository) DeleteMany(ctx context.Context, filter domain.StockFilter) (int64, error) {
	where, args := whereClause(filter, 1)
	query := fmt.Sprintf("DELETE FROM user_stocks WHERE %s", where)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stocks: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted stocks: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanStock reads one row into a domain record
func scanStock(row scanner) (*domain.UserStock, error) {
	var stock domain.UserStock
	var category string
	var quantityStr, avgPriceStr string
	var reportRaw []byte

	err := row.Scan(
		&stock.ID,
		&stock.OwnerID,
		&stock.Ticker,
		&category,
		&quantityStr,
		&avgPriceStr,
		&reportRaw,
	)
	if err != nil {
		return nil, err
	}

	stock.Category = domain.Category(category)

	quantity, err := decimal.NewFromString(quantityStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	stock.Quantity = quantity

	avgPrice, err := decimal.NewFromString(avgPriceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse avg_price: %w", err)
	}
	stock.AvgPrice = avgPrice

	if len(reportRaw) > 0 {
		var report domain.AIReport
		if err := json.Unmarshal(reportRaw, &report); err != nil {
			return nil, fmt.Errorf("failed to parse ai_report: %w", err)
		}
		stock.AIReport = &report
	}

	return &stock, nil
}

// whereClause builds the WHERE conjunction from the filter's set fields.
// An empty filter matches everything.
func whereClause(filter domain.StockFilter, startIndex int) (string, []interface{}) {
	clauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	next := func() int { return startIndex + len(args) }

	if filter.ID != nil {
		clauses = append(clauses, fmt.Sprintf("id = $%d", next()))
		args = append(args, *filter.ID)
	}
	if filter.OwnerID != nil {
		clauses = append(clauses, fmt.Sprintf("owner_id = $%d", next()))
		args = append(args, *filter.OwnerID)
	}
	if filter.Ticker != nil {
		clauses = append(clauses, fmt.Sprintf("ticker = $%d", next()))
		args = append(args, *filter.Ticker)
	}
	if filter.Category != nil {
		clauses = append(clauses, fmt.Sprintf("category = $%d", next()))
		args = append(args, string(*filter.Category))
	}

	if len(clauses) == 0 {
		return "TRUE", args
	}
	return strings.Join(clauses, " AND "), args
}

// setClause builds the SET list from the patch's set fields
func setClause(patch domain.StockPatch, startIndex int) (string, []interface{}, error) {
	if patch.IsZero() {
		return "", nil, fmt.Errorf("%w: empty patch", domain.ErrValidation)
	}

	clauses := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	next := func() int { return startIndex + len(args) }

	if patch.Ticker != nil {
		clauses = append(clauses, fmt.Sprintf("ticker = $%d", next()))
		args = append(args, *patch.Ticker)
	}
	if patch.Category != nil {
		clauses = append(clauses, fmt.Sprintf("category = $%d", next()))
		args = append(args, string(*patch.Category))
	}
	if patch.Quantity != nil {
		clauses = append(clauses, fmt.Sprintf("quantity = $%d", next()))
		args = append(args, patch.Quantity.String())
	}
	if patch.AvgPrice != nil {
		clauses = append(clauses, fmt.Sprintf("avg_price = $%d", next()))
		args = append(args, patch.AvgPrice.String())
	}
	if patch.SetAIReport {
		report, err := marshalReport(patch.AIReport)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, fmt.Sprintf("ai_report = $%d", next()))
		args = append(args, report)
	}

	return strings.Join(clauses, ", "), args, nil
}

// marshalReport encodes a report for the JSONB column; nil maps to SQL NULL
func marshalReport(report *domain.AIReport) (interface{}, error) {
	if report == nil {
		return nil, nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ai_report: %w", err)
	}
	return raw, nil
}

// isUniqueViolation reports whether err is a postgres unique-index conflict
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
