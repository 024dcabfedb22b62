package model

import (
	"sort"
	"time"
)

// LeaderboardEntry is one row of the predicted bestsellers table.
type LeaderboardEntry struct {
	ProductName        string  `json:"productName"`
	PredictedPeakMonth string  `json:"predictedPeakMonth"`
	EstimatedPeakSales string  `json:"estimatedPeakSales"` // currency formatted
	PeakSales          float64 `json:"-"`
}

// AnalysisResult is the outcome of one portfolio analysis run.
// Leaderboard is a derived view; it can always be rebuilt from ProductDetails
// and ProductOrder with BuildLeaderboard.
type AnalysisResult struct {
	Leaderboard    []LeaderboardEntry          `json:"leaderboard"`
	ProductDetails map[string]*ProductForecast `json:"-"`
	ProductOrder   []string                    `json:"products"` // enumeration order of analyzed products
	CompletedAt    time.Time                   `json:"completedAt"`
}

// EmptyAnalysisResult is returned when no product had enough data.
func EmptyAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Leaderboard:    []LeaderboardEntry{},
		ProductDetails: map[string]*ProductForecast{},
		ProductOrder:   []string{},
	}
}

// IsEmpty reports whether no product produced a forecast.
func (r *AnalysisResult) IsEmpty() bool {
	return r == nil || len(r.ProductDetails) == 0
}

// BuildLeaderboard ranks forecasts by peak sales, highest first. Ties keep the
// order given by order. The result is truncated to size entries.
func BuildLeaderboard(details map[string]*ProductForecast, order []string, size int, format func(float64) string) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(order))
	for _, name := range order {
		pf, ok := details[name]
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			ProductName:        name,
			PredictedPeakMonth: pf.PeakInfo.PeakMonth,
			PeakSales:          pf.PeakInfo.PeakSales,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PeakSales > entries[j].PeakSales
	})

	if size >= 0 && len(entries) > size {
		entries = entries[:size]
	}
	for i := range entries {
		entries[i].EstimatedPeakSales = format(entries[i].PeakSales)
	}
	return entries
}
