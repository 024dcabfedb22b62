// Package mapping turns an arbitrary uploaded table into the canonical
// {Product Name, Order Date, Sales} table.
package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// Error is returned when the canonical table cannot be resolved.
// It wraps one of apperrors.ErrInvalidMapping, ErrColumnNotFound or ErrNoValidRows.
type Error struct {
	Cause   error
	Columns []string // unresolved column names, if any
	Detail  string
}

func (e *Error) Error() string {
	msg := "data preparation failed: " + e.Cause.Error()
	if len(e.Columns) > 0 {
		msg += ": " + strings.Join(e.Columns, ", ")
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Stats counts rows dropped by each cleaning step.
type Stats struct {
	InputRows          int `json:"inputRows"`
	DroppedNonPositive int `json:"droppedNonPositive"`
	DroppedMissing     int `json:"droppedMissing"`
	DroppedBadDate     int `json:"droppedBadDate"`
	OutputRows         int `json:"outputRows"`
}

var validate = validator.New()

// Validate checks that the mapping names every canonical role.
func Validate(m model.ColumnMapping) error {
	if err := validate.Struct(m); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fe.Field())
			}
			return &Error{Cause: apperrors.ErrInvalidMapping, Detail: "missing " + strings.Join(fields, ", ")}
		}
		return &Error{Cause: apperrors.ErrInvalidMapping, Detail: err.Error()}
	}
	return nil
}

type columnIndexes struct {
	product, date, sales, quantity, price int
}

func resolveColumns(raw *model.RawTable, m model.ColumnMapping) (columnIndexes, error) {
	idx := columnIndexes{sales: -1, quantity: -1, price: -1}
	var missing []string

	lookup := func(name string) int {
		i := raw.ColumnIndex(name)
		if i < 0 {
			missing = append(missing, name)
		}
		return i
	}

	idx.product = lookup(m.ProductColumn)
	idx.date = lookup(m.DateColumn)
	if m.ComputesSales() {
		idx.quantity = lookup(m.QuantityColumn)
		idx.price = lookup(m.PriceColumn)
	} else {
		idx.sales = lookup(m.SalesColumn)
	}

	if len(missing) > 0 {
		return idx, &Error{Cause: apperrors.ErrColumnNotFound, Columns: missing}
	}
	return idx, nil
}

// parseNumber coerces a cell to a number; blank or non-numeric cells are missing.
func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Prepare maps raw onto the canonical table.
//
// Sales are either read from the sales column or computed as quantity x price.
// Cleaning then runs in order: rows whose sales are not a positive number are
// dropped, then rows missing a product or date, then rows whose date does not
// parse. Rows are dropped, never defaulted. Zero surviving rows is an error.
func Prepare(raw *model.RawTable, m model.ColumnMapping) (*model.CanonicalTable, Stats, error) {
	if err := Validate(m); err != nil {
		return nil, Stats{}, err
	}
	if raw == nil {
		return nil, Stats{}, &Error{Cause: apperrors.ErrNoValidRows, Detail: "no table"}
	}

	idx, err := resolveColumns(raw, m)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{InputRows: len(raw.Rows)}
	table := &model.CanonicalTable{Records: make([]model.CanonicalRecord, 0, len(raw.Rows))}

	for _, row := range raw.Rows {
		var sales decimal.Decimal
		var ok bool
		if m.ComputesSales() {
			var qty, price decimal.Decimal
			qty, ok = parseNumber(row[idx.quantity])
			if ok {
				price, ok = parseNumber(row[idx.price])
			}
			if ok {
				sales = qty.Mul(price)
			}
		} else {
			sales, ok = parseNumber(row[idx.sales])
		}
		if !ok || !sales.IsPositive() {
			stats.DroppedNonPositive++
			continue
		}

		// Product names are kept as written; whitespace only decides blankness.
		product := row[idx.product]
		dateCell := row[idx.date]
		if strings.TrimSpace(product) == "" || strings.TrimSpace(dateCell) == "" {
			stats.DroppedMissing++
			continue
		}

		date, ok := ParseDate(dateCell)
		if !ok {
			stats.DroppedBadDate++
			continue
		}

		table.Records = append(table.Records, model.CanonicalRecord{
			ProductName: product,
			OrderDate:   date,
			SalesAmount: sales,
		})
	}

	stats.OutputRows = len(table.Records)
	if stats.OutputRows == 0 {
		return nil, stats, &Error{
			Cause:  apperrors.ErrNoValidRows,
			Detail: fmt.Sprintf("%d input rows, none with a positive sales value, product and valid date", stats.InputRows),
		}
	}
	return table, stats, nil
}
