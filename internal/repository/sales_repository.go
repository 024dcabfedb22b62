package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// SalesRepository stages a session's canonical sales table in SQLite so the
// dashboard can be computed with plain SQL aggregates.
type SalesRepository struct {
	db *sql.DB
}

// NewSalesRepository creates a new SalesRepository with the provided database connection.
func NewSalesRepository(db *sql.DB) *SalesRepository {
	return &SalesRepository{db: db}
}

// ReplaceSessionRecords swaps the staged table of a session in one transaction.
// Row order is kept so GetRecords returns the table as it was prepared.
func (r *SalesRepository) ReplaceSessionRecords(ctx context.Context, sessionID string, records []model.CanonicalRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales_record WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear session records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_record (session_id, row_index, product_name, order_date, sales)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			sessionID,
			i,
			rec.ProductName,
			rec.OrderDate.Format(model.DateLayout),
			rec.SalesAmount.String(),
		); err != nil {
			return fmt.Errorf("failed to insert sales record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteSession removes every staged record of a session and returns how many were removed.
func (r *SalesRepository) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sales_record WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// GetRecords returns the staged table in its original row order.
// Returns an empty slice if the session has no records.
func (r *SalesRepository) GetRecords(ctx context.Context, sessionID string) ([]model.CanonicalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_name, order_date, sales
		FROM sales_record
		WHERE session_id = ?
		ORDER BY row_index
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales_record table: %w", err)
	}
	defer rows.Close()

	records := []model.CanonicalRecord{}
	for rows.Next() {
		var rec model.CanonicalRecord
		var dateStr, salesStr string
		if err := rows.Scan(&rec.ProductName, &dateStr, &salesStr); err != nil {
			return nil, fmt.Errorf("failed to scan sales record: %w", err)
		}

		rec.OrderDate, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		rec.SalesAmount, err = decimal.NewFromString(salesStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sales amount %q: %w", salesStr, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales records: %w", err)
	}
	return records, nil
}

// TotalSales returns the sum of all staged sales of a session.
func (r *SalesRepository) TotalSales(ctx context.Context, sessionID string) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CAST(sales AS REAL)), 0)
		FROM sales_record
		WHERE session_id = ?
	`, sessionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum sales: %w", err)
	}
	return total, nil
}

// UniqueProducts returns the number of distinct products of a session.
func (r *SalesRepository) UniqueProducts(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT product_name)
		FROM sales_record
		WHERE session_id = ?
	`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// TopProducts returns the n products with the highest all-time sales.
// Equal totals are ordered by product name.
func (r *SalesRepository) TopProducts(ctx context.Context, sessionID string, n int) ([]model.ProductTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_name, SUM(CAST(sales AS REAL)) AS total
		FROM sales_record
		WHERE session_id = ?
		GROUP BY product_name
		ORDER BY total DESC, product_name ASC
		LIMIT ?
	`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	totals := []model.ProductTotal{}
	for rows.Next() {
		var pt model.ProductTotal
		if err := rows.Scan(&pt.ProductName, &pt.Sales); err != nil {
			return nil, fmt.Errorf("failed to scan product total: %w", err)
		}
		totals = append(totals, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product totals: %w", err)
	}
	return totals, nil
}

// DailyTotals returns the summed sales of all products per day, oldest first.
func (r *SalesRepository) DailyTotals(ctx context.Context, sessionID string) ([]model.DailyTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_date, SUM(CAST(sales AS REAL))
		FROM sales_record
		WHERE session_id = ?
		GROUP BY order_date
		ORDER BY order_date ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer rows.Close()

	totals := []model.DailyTotal{}
	for rows.Next() {
		var dt model.DailyTotal
		var dateStr string
		if err := rows.Scan(&dateStr, &dt.Sales); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		dt.Date, err = ParseTime(dateStr)
		if err != nil {
			return nil, err
		}
		totals = append(totals, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}
	return totals, nil
}

// ProductNames returns the distinct product names of a session, sorted.
func (r *SalesRepository) ProductNames(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT product_name
		FROM sales_record
		WHERE session_id = ?
		ORDER BY product_name ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan product name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product names: %w", err)
	}
	return names, nil
}
