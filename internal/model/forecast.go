package model

import "time"

// PeakMonthUnavailable is the label used when a forecast has no future points.
const PeakMonthUnavailable = "N/A"

// PeakMonthLayout renders a peak date as e.g. "March 2025".
const PeakMonthLayout = "January 2006"

// DailyPoint is a product's summed sales for one calendar day.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Sales float64   `json:"sales"`
}

// DailySeries is ordered by strictly increasing, unique dates.
type DailySeries []DailyPoint

// LastDate returns the most recent date of the series, or the zero time if empty.
func (s DailySeries) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// Dates returns the series dates in order.
func (s DailySeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}

// ForecastPoint is one row of a forecast table.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhatLower"`
	YhatUpper float64   `json:"yhatUpper"`
}

// PeakInfo is the single future date with the highest point estimate.
// PeakDate is nil when the forecast had no points past the history.
type PeakInfo struct {
	PeakDate  *time.Time `json:"peakDate"`
	PeakSales float64    `json:"peakSales"`
	PeakMonth string     `json:"peakMonth"`
}

// ProductForecast is the immutable result of forecasting one product.
type ProductForecast struct {
	ProductName    string          `json:"productName"`
	HistoricalData DailySeries     `json:"historicalData"`
	ForecastData   []ForecastPoint `json:"forecastData"`
	PeakInfo       PeakInfo        `json:"peakInfo"`
}
