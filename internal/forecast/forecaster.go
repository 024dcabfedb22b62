// Package forecast fits a per-product time-series model and projects it a
// fixed horizon past the last observed day.
package forecast

import (
	"context"
	"fmt"
	"math"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// Default forecasting policy.
const (
	DefaultHorizonDays   = 365
	DefaultMinDataPoints = 10
)

// Config configures a Forecaster. Zero values fall back to the defaults.
type Config struct {
	HorizonDays   int
	MinDataPoints int
	NewModel      ModelFactory
}

// Forecaster produces a ProductForecast for a single product.
type Forecaster struct {
	horizonDays   int
	minDataPoints int
	newModel      ModelFactory
}

// NewForecaster creates a Forecaster.
func NewForecaster(cfg Config) *Forecaster {
	f := &Forecaster{
		horizonDays:   cfg.HorizonDays,
		minDataPoints: cfg.MinDataPoints,
		newModel:      cfg.NewModel,
	}
	if f.horizonDays <= 0 {
		f.horizonDays = DefaultHorizonDays
	}
	if f.minDataPoints <= 0 {
		f.minDataPoints = DefaultMinDataPoints
	}
	if f.newModel == nil {
		f.newModel = NewAdditiveModelFactory(DefaultAdditiveConfig())
	}
	return f
}

// HorizonDays returns the number of days forecast past the history.
func (f *Forecaster) HorizonDays() int { return f.horizonDays }

// Forecast aggregates records to a daily series, fits a fresh model and
// forecasts the history plus the horizon.
//
// A series with fewer than the minimum distinct days returns
// apperrors.ErrInsufficientData. Any failure inside the model, including a
// panic, returns an error wrapping apperrors.ErrModelFit. Records of other
// products must not be passed in.
func (f *Forecaster) Forecast(ctx context.Context, name string, records []model.CanonicalRecord) (pf *model.ProductForecast, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			pf = nil
			err = fmt.Errorf("%w: %s: panic: %v", apperrors.ErrModelFit, name, r)
		}
	}()

	series := Aggregate(records)
	if len(series) < f.minDataPoints {
		return nil, fmt.Errorf("%w: %s has %d distinct days, need %d",
			apperrors.ErrInsufficientData, name, len(series), f.minDataPoints)
	}

	for _, pt := range series {
		if !isFinite(pt.Sales) {
			return nil, fmt.Errorf("%w: %s: daily sales on %s overflow float64",
				apperrors.ErrModelFit, name, pt.Date.Format(model.DateLayout))
		}
	}

	m := f.newModel()
	if err := m.Fit(series); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrModelFit, name, err)
	}

	last := series.LastDate()
	dates := series.Dates()
	for i := 1; i <= f.horizonDays; i++ {
		dates = append(dates, last.AddDate(0, 0, i))
	}

	points, err := m.Predict(dates)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrModelFit, name, err)
	}
	for _, pt := range points {
		if !isFinite(pt.Yhat) || !isFinite(pt.YhatLower) || !isFinite(pt.YhatUpper) {
			return nil, fmt.Errorf("%w: %s: non-finite forecast on %s",
				apperrors.ErrModelFit, name, pt.Date.Format(model.DateLayout))
		}
	}

	return &model.ProductForecast{
		ProductName:    name,
		HistoricalData: series,
		ForecastData:   points,
		PeakInfo:       ExtractPeak(points, last),
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
