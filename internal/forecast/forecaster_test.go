package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dailyRecords(name string, days int, sales func(i int) float64) []model.CanonicalRecord {
	records := make([]model.CanonicalRecord, 0, days)
	for i := 0; i < days; i++ {
		records = append(records, model.CanonicalRecord{
			ProductName: name,
			OrderDate:   day0.AddDate(0, 0, i),
			SalesAmount: decimal.NewFromFloat(sales(i)),
		})
	}
	return records
}

// stubModel predicts a fixed function of the date and ignores the fit.
type stubModel struct {
	fitErr  error
	panicky bool
	yhat    func(d time.Time) float64
	fitted  model.DailySeries
}

func (s *stubModel) Fit(series model.DailySeries) error {
	if s.panicky {
		panic("boom")
	}
	s.fitted = series
	return s.fitErr
}

func (s *stubModel) Predict(dates []time.Time) ([]model.ForecastPoint, error) {
	out := make([]model.ForecastPoint, len(dates))
	for i, d := range dates {
		y := s.yhat(d)
		out[i] = model.ForecastPoint{Date: d, Yhat: y, YhatLower: y - 1, YhatUpper: y + 1}
	}
	return out, nil
}

func stubFactory(m *stubModel) ModelFactory {
	return func() Model { return m }
}

func TestAggregate(t *testing.T) {
	records := []model.CanonicalRecord{
		{ProductName: "A", OrderDate: day0.AddDate(0, 0, 2), SalesAmount: decimal.NewFromInt(5)},
		{ProductName: "A", OrderDate: day0, SalesAmount: decimal.RequireFromString("1.25")},
		{ProductName: "A", OrderDate: day0, SalesAmount: decimal.RequireFromString("2.75")},
	}

	series := Aggregate(records)

	require.Len(t, series, 2)
	assert.Equal(t, day0, series[0].Date)
	assert.InDelta(t, 4.0, series[0].Sales, 1e-9)
	assert.Equal(t, day0.AddDate(0, 0, 2), series[1].Date)
	assert.True(t, series[0].Date.Before(series[1].Date))
}

// TestForecast_InsufficientData tests the minimum-data policy.
//
// WHY: Products with fewer than 10 distinct sales days are excluded from the
// analysis; repeated rows on the same day must not count twice.
func TestForecast_InsufficientData(t *testing.T) {
	f := NewForecaster(Config{NewModel: stubFactory(&stubModel{yhat: func(time.Time) float64 { return 1 }})})

	records := dailyRecords("A", 9, func(int) float64 { return 10 })
	records = append(records, dailyRecords("A", 9, func(int) float64 { return 3 })...)

	pf, err := f.Forecast(context.Background(), "A", records)
	assert.Nil(t, pf)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	pf, err = f.Forecast(context.Background(), "A", dailyRecords("A", 10, func(int) float64 { return 10 }))
	require.NoError(t, err)
	assert.Len(t, pf.HistoricalData, 10)
}

func TestForecast_Horizon(t *testing.T) {
	stub := &stubModel{yhat: func(time.Time) float64 { return 1 }}
	f := NewForecaster(Config{NewModel: stubFactory(stub)})

	pf, err := f.Forecast(context.Background(), "A", dailyRecords("A", 20, func(int) float64 { return 10 }))
	require.NoError(t, err)

	require.Len(t, pf.ForecastData, 20+DefaultHorizonDays)
	last := pf.HistoricalData.LastDate()
	assert.Equal(t, day0, pf.ForecastData[0].Date)
	assert.Equal(t, last.AddDate(0, 0, DefaultHorizonDays), pf.ForecastData[len(pf.ForecastData)-1].Date)
	assert.Len(t, stub.fitted, 20)
}

// TestForecast_PeakIsInFuture tests that the peak ignores the history.
//
// WHY: A history point can have the largest estimate; the peak must still be
// the best point strictly after the last historical date.
func TestForecast_PeakIsInFuture(t *testing.T) {
	last := day0.AddDate(0, 0, 19)
	want := last.AddDate(0, 0, 40)
	stub := &stubModel{yhat: func(d time.Time) float64 {
		switch {
		case !d.After(last):
			return 1000
		case d.Equal(want):
			return 50
		default:
			return 10
		}
	}}
	f := NewForecaster(Config{NewModel: stubFactory(stub)})

	pf, err := f.Forecast(context.Background(), "A", dailyRecords("A", 20, func(int) float64 { return 10 }))
	require.NoError(t, err)

	require.NotNil(t, pf.PeakInfo.PeakDate)
	assert.Equal(t, want, *pf.PeakInfo.PeakDate)
	assert.True(t, pf.PeakInfo.PeakDate.After(last))
	assert.InDelta(t, 50.0, pf.PeakInfo.PeakSales, 1e-9)
	assert.Equal(t, "February 2024", pf.PeakInfo.PeakMonth)
}

// TestForecast_ModelFailures tests that model errors and panics are contained.
//
// WHY: One product's failing fit must surface as an error value the analyzer
// can skip, never as a crash of the whole run.
func TestForecast_ModelFailures(t *testing.T) {
	records := dailyRecords("A", 15, func(int) float64 { return 10 })

	t.Run("fit error", func(t *testing.T) {
		f := NewForecaster(Config{NewModel: stubFactory(&stubModel{fitErr: errors.New("singular")})})
		_, err := f.Forecast(context.Background(), "A", records)
		assert.ErrorIs(t, err, apperrors.ErrModelFit)
	})

	t.Run("panic", func(t *testing.T) {
		f := NewForecaster(Config{NewModel: stubFactory(&stubModel{panicky: true})})
		var (
			pf  *model.ProductForecast
			err error
		)
		assert.NotPanics(t, func() {
			pf, err = f.Forecast(context.Background(), "A", records)
		})
		assert.Nil(t, pf)
		assert.ErrorIs(t, err, apperrors.ErrModelFit)
	})

	t.Run("daily sales overflow float64", func(t *testing.T) {
		huge := append([]model.CanonicalRecord(nil), records...)
		huge[3].SalesAmount = decimal.RequireFromString("1e400")

		stub := &stubModel{yhat: func(time.Time) float64 { return 1 }}
		f := NewForecaster(Config{NewModel: stubFactory(stub)})
		pf, err := f.Forecast(context.Background(), "A", huge)
		assert.Nil(t, pf)
		assert.ErrorIs(t, err, apperrors.ErrModelFit)
		assert.Nil(t, stub.fitted, "model must not be fitted on infinite input")
	})

	t.Run("non-finite prediction", func(t *testing.T) {
		f := NewForecaster(Config{NewModel: stubFactory(&stubModel{yhat: func(time.Time) float64 { return math.NaN() }})})
		pf, err := f.Forecast(context.Background(), "A", records)
		assert.Nil(t, pf)
		assert.ErrorIs(t, err, apperrors.ErrModelFit)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f := NewForecaster(Config{})
		_, err := f.Forecast(ctx, "A", records)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestForecast_SpikeScenario tests a long flat series with one spike.
//
// WHY: This is the reference end-to-end case: 400 days of constant sales with
// a single spike must still produce a positive future peak with a month label.
func TestForecast_SpikeScenario(t *testing.T) {
	records := dailyRecords("Widget", 400, func(i int) float64 {
		if i == 200 {
			return 500
		}
		return 100
	})
	f := NewForecaster(Config{})

	pf, err := f.Forecast(context.Background(), "Widget", records)
	require.NoError(t, err)

	require.NotNil(t, pf.PeakInfo.PeakDate)
	assert.True(t, pf.PeakInfo.PeakDate.After(pf.HistoricalData.LastDate()))
	assert.Greater(t, pf.PeakInfo.PeakSales, 0.0)
	assert.NotEqual(t, model.PeakMonthUnavailable, pf.PeakInfo.PeakMonth)
	assert.Len(t, pf.ForecastData, 400+365)
	for _, p := range pf.ForecastData {
		assert.False(t, math.IsNaN(p.Yhat))
		assert.LessOrEqual(t, p.YhatLower, p.Yhat)
		assert.LessOrEqual(t, p.Yhat, p.YhatUpper)
	}
}

func TestExtractPeak(t *testing.T) {
	last := day0
	points := []model.ForecastPoint{
		{Date: day0, Yhat: 99},
		{Date: day0.AddDate(0, 0, 1), Yhat: 5},
		{Date: day0.AddDate(0, 0, 2), Yhat: 7},
		{Date: day0.AddDate(0, 0, 3), Yhat: 7},
	}

	t.Run("earliest maximum after last", func(t *testing.T) {
		peak := ExtractPeak(points, last)
		require.NotNil(t, peak.PeakDate)
		assert.Equal(t, day0.AddDate(0, 0, 2), *peak.PeakDate)
		assert.InDelta(t, 7.0, peak.PeakSales, 1e-9)
		assert.Equal(t, "January 2024", peak.PeakMonth)
	})

	t.Run("no future points", func(t *testing.T) {
		peak := ExtractPeak(points, day0.AddDate(0, 0, 3))
		assert.Nil(t, peak.PeakDate)
		assert.Zero(t, peak.PeakSales)
		assert.Equal(t, model.PeakMonthUnavailable, peak.PeakMonth)
	})
}
