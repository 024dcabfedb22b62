package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names of the prepared sales table.
const (
	ColumnProductName = "Product Name"
	ColumnOrderDate   = "Order Date"
	ColumnSales       = "Sales"
)

// DateLayout is the canonical calendar date format used in storage and output.
const DateLayout = "2006-01-02"

// RawTable is an uploaded sales export before column mapping.
// Every row has exactly len(Header) cells; an empty cell means "missing".
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ColumnIndex returns the position of the named column, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Preview returns up to n leading rows.
func (t *RawTable) Preview(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// ColumnMapping assigns upload columns to the canonical roles.
// Either SalesColumn is set, or both QuantityColumn and PriceColumn are set;
// when all three are set the computed quantity x price wins.
type ColumnMapping struct {
	ProductColumn  string `json:"productColumn" validate:"required"`
	DateColumn     string `json:"dateColumn" validate:"required"`
	SalesColumn    string `json:"salesColumn,omitempty" validate:"required_without_all=QuantityColumn PriceColumn"`
	QuantityColumn string `json:"quantityColumn,omitempty" validate:"required_with=PriceColumn"`
	PriceColumn    string `json:"priceColumn,omitempty" validate:"required_with=QuantityColumn"`
}

// ComputesSales reports whether sales are derived from quantity and price.
func (m ColumnMapping) ComputesSales() bool {
	return m.QuantityColumn != "" && m.PriceColumn != ""
}

// IdentityMapping maps a canonical table onto itself.
var IdentityMapping = ColumnMapping{
	ProductColumn: ColumnProductName,
	DateColumn:    ColumnOrderDate,
	SalesColumn:   ColumnSales,
}

// CanonicalRecord is one row of the prepared table.
// All fields are present and SalesAmount is strictly positive.
type CanonicalRecord struct {
	ProductName string          `json:"productName"`
	OrderDate   time.Time       `json:"orderDate"` // UTC midnight
	SalesAmount decimal.Decimal `json:"salesAmount"`
}

// CanonicalTable is the three-column table all downstream logic operates on.
type CanonicalTable struct {
	Records []CanonicalRecord
}

// Len returns the number of records.
func (t *CanonicalTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// Raw renders the table back into a RawTable with canonical headers, so it can
// be fed through the mapper again with IdentityMapping.
func (t *CanonicalTable) Raw() *RawTable {
	raw := &RawTable{
		Header: []string{ColumnProductName, ColumnOrderDate, ColumnSales},
		Rows:   make([][]string, 0, t.Len()),
	}
	for _, r := range t.Records {
		raw.Rows = append(raw.Rows, []string{
			r.ProductName,
			r.OrderDate.Format(DateLayout),
			r.SalesAmount.String(),
		})
	}
	return raw
}

// ProductOrder returns the distinct product names in first-appearance order.
func (t *CanonicalTable) ProductOrder() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range t.Records {
		if _, ok := seen[r.ProductName]; ok {
			continue
		}
		seen[r.ProductName] = struct{}{}
		names = append(names, r.ProductName)
	}
	return names
}

// GroupByProduct slices the table per product, preserving row order within each product.
func (t *CanonicalTable) GroupByProduct() map[string][]CanonicalRecord {
	groups := make(map[string][]CanonicalRecord)
	for _, r := range t.Records {
		groups[r.ProductName] = append(groups[r.ProductName], r)
	}
	return groups
}
