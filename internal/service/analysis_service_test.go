package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/metrics"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/service"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/testutil"
)

// fakeForecaster returns a fixed peak per product, or an error/panic.
type fakeForecaster struct {
	peaks  map[string]float64
	errs   map[string]error
	panics map[string]bool
	calls  atomic.Int32
}

func (f *fakeForecaster) Forecast(_ context.Context, name string, _ []model.CanonicalRecord) (*model.ProductForecast, error) {
	f.calls.Add(1)
	if f.panics[name] {
		panic("fit exploded")
	}
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	peak := testutil.BaseDate.AddDate(1, 0, 0)
	return &model.ProductForecast{
		ProductName: name,
		PeakInfo: model.PeakInfo{
			PeakDate:  &peak,
			PeakSales: f.peaks[name],
			PeakMonth: peak.Format(model.PeakMonthLayout),
		},
	}, nil
}

func recordsFor(names ...string) []model.CanonicalRecord {
	var records []model.CanonicalRecord
	for _, n := range names {
		records = append(records, testutil.NewSales(n).Days(2).Build()...)
	}
	return records
}

func leaderboardNames(r *model.AnalysisResult) []string {
	names := make([]string, len(r.Leaderboard))
	for i, e := range r.Leaderboard {
		names[i] = e.ProductName
	}
	return names
}

// TestAnalysisService_Leaderboard tests ranking over the product details.
//
// WHY: The leaderboard must be the top five by peak sales with ties kept in
// first-appearance order, and every excluded product must be absent from both
// the leaderboard and the details.
func TestAnalysisService_Leaderboard(t *testing.T) {
	ff := &fakeForecaster{
		peaks: map[string]float64{"a": 10, "b": 50, "c": 30, "d": 50, "e": 20, "f": 40, "g": 5},
		errs:  map[string]error{"short": fmt.Errorf("%w: 3 days", apperrors.ErrInsufficientData)},
	}
	svc := service.NewAnalysisService(ff, service.AnalysisOptions{}, nil, logging.NewNop())

	result, err := svc.Analyze(context.Background(), recordsFor("a", "b", "short", "c", "d", "e", "f", "g"))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "d", "f", "c", "e"}, leaderboardNames(result))
	assert.Len(t, result.ProductDetails, 7)
	assert.NotContains(t, result.ProductDetails, "short")
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, result.ProductOrder)

	for i := 0; i+1 < len(result.Leaderboard); i++ {
		assert.GreaterOrEqual(t, result.Leaderboard[i].PeakSales, result.Leaderboard[i+1].PeakSales)
	}
	assert.Equal(t, "$50.00", result.Leaderboard[0].EstimatedPeakSales)
	assert.InDelta(t, 50.0, result.ProductDetails["b"].PeakInfo.PeakSales, 1e-9)

	rebuilt := model.BuildLeaderboard(result.ProductDetails, result.ProductOrder, 5, service.FormatCurrency)
	assert.Equal(t, result.Leaderboard, rebuilt)
}

// TestAnalysisService_ProductFailures tests that failures stay local to one product.
//
// WHY: A model error or panic in one product must never abort the portfolio.
func TestAnalysisService_ProductFailures(t *testing.T) {
	ff := &fakeForecaster{
		peaks:  map[string]float64{"ok": 10},
		errs:   map[string]error{"broken": errors.New("singular matrix")},
		panics: map[string]bool{"explodes": true},
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := service.NewAnalysisService(ff, service.AnalysisOptions{}, m, logging.NewNop())

	result, err := svc.Analyze(context.Background(), recordsFor("broken", "explodes", "ok"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, leaderboardNames(result))
	assert.Len(t, result.ProductDetails, 1)
	assert.InDelta(t, 2, promtest.ToFloat64(m.ProductOutcomesTotal.WithLabelValues(metrics.OutcomeFailed)), 1e-9)
	assert.InDelta(t, 1, promtest.ToFloat64(m.ProductOutcomesTotal.WithLabelValues(metrics.OutcomeForecast)), 1e-9)
}

func TestAnalysisService_WorkersMatchSequential(t *testing.T) {
	peaks := map[string]float64{}
	var names []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("p%02d", i)
		names = append(names, name)
		peaks[name] = float64(i % 4) // plenty of ties
	}
	records := recordsFor(names...)

	seq := service.NewAnalysisService(&fakeForecaster{peaks: peaks}, service.AnalysisOptions{Workers: 1}, nil, nil)
	par := service.NewAnalysisService(&fakeForecaster{peaks: peaks}, service.AnalysisOptions{Workers: 4}, nil, nil)

	want, err := seq.Analyze(context.Background(), records)
	require.NoError(t, err)
	got, err := par.Analyze(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, leaderboardNames(want), leaderboardNames(got))
	assert.Equal(t, want.ProductOrder, got.ProductOrder)
}

func TestAnalysisService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			svc := service.NewAnalysisService(&fakeForecaster{}, service.AnalysisOptions{Workers: workers}, nil, nil)
			_, err := svc.Analyze(ctx, recordsFor("a", "b"))
			assert.ErrorIs(t, err, context.Canceled)
			assert.ErrorIs(t, err, apperrors.ErrFailedToRunForecast)
		})
	}
}

// TestAnalysisService_Scenarios runs the end-to-end cases with the real model.
func TestAnalysisService_Scenarios(t *testing.T) {
	svc := testutil.NewTestAnalysisService(t)

	t.Run("single product with a spike", func(t *testing.T) {
		records := testutil.NewSales("Widget").Days(400).WithAmount(100).WithSpike(250, 500).Build()

		result, err := svc.Analyze(context.Background(), records)
		require.NoError(t, err)

		require.Len(t, result.Leaderboard, 1)
		assert.Equal(t, "Widget", result.Leaderboard[0].ProductName)
		assert.Greater(t, result.Leaderboard[0].PeakSales, 0.0)
		assert.NotEqual(t, model.PeakMonthUnavailable, result.Leaderboard[0].PredictedPeakMonth)
	})

	t.Run("one product with too little data", func(t *testing.T) {
		records := testutil.NewSales("Short").Days(5).Build()
		long := testutil.NewSales("Long").Days(30).Build()
		// spread the 30 rows over two months
		for i := range long {
			long[i].OrderDate = testutil.BaseDate.AddDate(0, 0, 2*i)
		}
		records = append(records, long...)

		result, err := svc.Analyze(context.Background(), records)
		require.NoError(t, err)

		assert.Len(t, result.ProductDetails, 1)
		assert.Contains(t, result.ProductDetails, "Long")
		assert.Len(t, result.Leaderboard, 1)
	})

	t.Run("empty table", func(t *testing.T) {
		result, err := svc.Analyze(context.Background(), nil)
		require.NoError(t, err)

		assert.True(t, result.IsEmpty())
		assert.Empty(t, result.Leaderboard)
		assert.Empty(t, result.ProductDetails)
	})
}

func TestAnalysisService_LeaderboardSize(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5, 8} {
		t.Run(fmt.Sprintf("%d products", n), func(t *testing.T) {
			peaks := map[string]float64{}
			var names []string
			for i := 0; i < n; i++ {
				name := fmt.Sprintf("p%d", i)
				names = append(names, name)
				peaks[name] = float64(i)
			}
			svc := service.NewAnalysisService(&fakeForecaster{peaks: peaks}, service.AnalysisOptions{}, nil, nil)

			result, err := svc.Analyze(context.Background(), recordsFor(names...))
			require.NoError(t, err)
			assert.Len(t, result.Leaderboard, min(5, n))
			assert.WithinDuration(t, time.Now(), result.CompletedAt, time.Minute)
		})
	}
}

// TestAnalysisService_OverflowingSalesAreSkipped tests a product whose daily
// total does not fit in a float64.
//
// WHY: A huge but valid decimal turns into +Inf once the model sees it. That
// product must be dropped like any other failure instead of landing on the
// leaderboard with a NaN peak that breaks the ordering and the display string.
func TestAnalysisService_OverflowingSalesAreSkipped(t *testing.T) {
	svc := testutil.NewTestAnalysisService(t)

	records := testutil.NewSales("Good").Days(30).Build()
	records = append(records, testutil.NewSales("Low").Days(30).WithAmount(10).Build()...)
	huge := testutil.NewSales("Huge").Days(30).Build()
	huge[5].SalesAmount = decimal.RequireFromString("1e400")
	records = append(records, huge...)

	result, err := svc.Analyze(context.Background(), records)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Good", "Low"}, leaderboardNames(result))
	assert.NotContains(t, result.ProductDetails, "Huge")
	for i := 0; i+1 < len(result.Leaderboard); i++ {
		assert.GreaterOrEqual(t, result.Leaderboard[i].PeakSales, result.Leaderboard[i+1].PeakSales)
	}
	for _, e := range result.Leaderboard {
		assert.NotContains(t, e.EstimatedPeakSales, "NaN")
	}
}
