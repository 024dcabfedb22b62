package forecast

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// Aggregate sums a product's records per calendar day. The returned series is
// sorted by date with one point per distinct date.
func Aggregate(records []model.CanonicalRecord) model.DailySeries {
	totals := make(map[time.Time]decimal.Decimal)
	for _, r := range records {
		day := time.Date(r.OrderDate.Year(), r.OrderDate.Month(), r.OrderDate.Day(), 0, 0, 0, 0, time.UTC)
		totals[day] = totals[day].Add(r.SalesAmount)
	}

	series := make(model.DailySeries, 0, len(totals))
	for day, total := range totals {
		series = append(series, model.DailyPoint{Date: day, Sales: total.InexactFloat64()})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}
