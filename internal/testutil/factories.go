package testutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// BaseDate is the first order date used by the builders.
var BaseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SalesBuilder provides a fluent interface for creating canonical sales records.
//
// Example usage:
//
//	// 30 days of 100 in sales for one product
//	records := testutil.NewSales("Widget").Days(30).Build()
//
//	// Customized series
//	records := testutil.NewSales("Gadget").
//	    StartingAt(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)).
//	    Days(400).
//	    WithAmount(100).
//	    WithSpike(200, 500).
//	    Build()
type SalesBuilder struct {
	Product string
	Start   time.Time
	Count   int
	Amount  float64
	Spikes  map[int]float64
}

// NewSales creates a SalesBuilder with sensible defaults.
func NewSales(product string) *SalesBuilder {
	return &SalesBuilder{
		Product: product,
		Start:   BaseDate,
		Count:   30,
		Amount:  100,
		Spikes:  map[int]float64{},
	}
}

func (b *SalesBuilder) StartingAt(start time.Time) *SalesBuilder {
	b.Start = start
	return b
}

func (b *SalesBuilder) Days(n int) *SalesBuilder {
	b.Count = n
	return b
}

func (b *SalesBuilder) WithAmount(amount float64) *SalesBuilder {
	b.Amount = amount
	return b
}

// WithSpike overrides the amount on the given day offset.
func (b *SalesBuilder) WithSpike(day int, amount float64) *SalesBuilder {
	b.Spikes[day] = amount
	return b
}

// Build returns one record per consecutive day.
func (b *SalesBuilder) Build() []model.CanonicalRecord {
	records := make([]model.CanonicalRecord, 0, b.Count)
	for i := 0; i < b.Count; i++ {
		amount := b.Amount
		if spike, ok := b.Spikes[i]; ok {
			amount = spike
		}
		records = append(records, model.CanonicalRecord{
			ProductName: b.Product,
			OrderDate:   b.Start.AddDate(0, 0, i),
			SalesAmount: decimal.NewFromFloat(amount),
		})
	}
	return records
}

// CSV renders records as an upload with canonical headers.
func CSV(records []model.CanonicalRecord) string {
	var sb strings.Builder
	sb.WriteString(strings.Join([]string{model.ColumnProductName, model.ColumnOrderDate, model.ColumnSales}, ","))
	sb.WriteString("\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "%s,%s,%s\n", r.ProductName, r.OrderDate.Format(model.DateLayout), r.SalesAmount.String())
	}
	return sb.String()
}
