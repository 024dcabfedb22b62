package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forecastWithPeak(name string, peak float64) *ProductForecast {
	return &ProductForecast{
		ProductName: name,
		PeakInfo:    PeakInfo{PeakSales: peak, PeakMonth: "March 2025"},
	}
}

func plainFormat(v float64) string { return fmt.Sprintf("%.2f", v) }

// TestBuildLeaderboard tests ranking, tie-breaking and truncation.
//
// WHY: The leaderboard is only a view over the product details; it must be
// sorted by peak sales, keep enumeration order on ties, and hold at most
// size rows.
func TestBuildLeaderboard(t *testing.T) {
	details := map[string]*ProductForecast{
		"a": forecastWithPeak("a", 10),
		"b": forecastWithPeak("b", 30),
		"c": forecastWithPeak("c", 20),
		"d": forecastWithPeak("d", 30),
		"e": forecastWithPeak("e", 5),
		"f": forecastWithPeak("f", 1),
	}
	order := []string{"a", "b", "c", "d", "e", "f"}

	t.Run("sorted descending with stable ties", func(t *testing.T) {
		board := BuildLeaderboard(details, order, 5, plainFormat)

		names := make([]string, len(board))
		for i, e := range board {
			names[i] = e.ProductName
		}
		assert.Equal(t, []string{"b", "d", "c", "a", "e"}, names)
		for i := 0; i+1 < len(board); i++ {
			assert.GreaterOrEqual(t, board[i].PeakSales, board[i+1].PeakSales)
		}
	})

	t.Run("formats the display value", func(t *testing.T) {
		board := BuildLeaderboard(details, order, 1, plainFormat)
		require.Len(t, board, 1)
		assert.Equal(t, "30.00", board[0].EstimatedPeakSales)
		assert.Equal(t, "March 2025", board[0].PredictedPeakMonth)
	})

	t.Run("size is min of limit and products", func(t *testing.T) {
		for _, size := range []int{0, 1, 5, 10} {
			board := BuildLeaderboard(details, order, size, plainFormat)
			assert.Len(t, board, min(size, len(details)))
		}
	})

	t.Run("ignores names without details", func(t *testing.T) {
		board := BuildLeaderboard(details, []string{"missing", "a"}, 5, plainFormat)
		require.Len(t, board, 1)
		assert.Equal(t, "a", board[0].ProductName)
	})

	t.Run("empty details", func(t *testing.T) {
		board := BuildLeaderboard(nil, nil, 5, plainFormat)
		assert.NotNil(t, board)
		assert.Empty(t, board)
	})
}

func TestEmptyAnalysisResult(t *testing.T) {
	r := EmptyAnalysisResult()
	assert.True(t, r.IsEmpty())
	assert.Empty(t, r.Leaderboard)
	assert.NotNil(t, r.ProductDetails)
}

func TestCanonicalTable(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	table := &CanonicalTable{Records: []CanonicalRecord{
		{ProductName: "B", OrderDate: day, SalesAmount: decimal.NewFromInt(2)},
		{ProductName: "A", OrderDate: day, SalesAmount: decimal.RequireFromString("1.5")},
		{ProductName: "B", OrderDate: day.AddDate(0, 0, 1), SalesAmount: decimal.NewFromInt(3)},
	}}

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"B", "A"}, table.ProductOrder())

	groups := table.GroupByProduct()
	assert.Len(t, groups["B"], 2)
	assert.Len(t, groups["A"], 1)

	raw := table.Raw()
	assert.Equal(t, []string{ColumnProductName, ColumnOrderDate, ColumnSales}, raw.Header)
	assert.Equal(t, []string{"A", "2024-05-01", "1.5"}, raw.Rows[1])

	var nilTable *CanonicalTable
	assert.Equal(t, 0, nilTable.Len())
}
