package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// Model is a time-series model that can be fitted to a daily series and
// queried for point forecasts with uncertainty bounds.
type Model interface {
	Fit(series model.DailySeries) error
	Predict(dates []time.Time) ([]model.ForecastPoint, error)
}

// ModelFactory returns a fresh, unfitted model. Each product gets its own.
type ModelFactory func() Model

const secondsPerDay = 24 * 60 * 60

// AdditiveConfig configures AdditiveModel.
type AdditiveConfig struct {
	Changepoints          int     // maximum number of trend changepoints
	ChangepointRange      float64 // fraction of history that may hold changepoints
	ChangepointPriorScale float64
	SeasonalityPriorScale float64
	YearlyOrder           int
	WeeklyOrder           int
	IntervalWidth         float64
	// NoiseScale is the assumed residual scale of the normalised series; it sets
	// the ridge weight of each penalised coefficient relative to its prior scale.
	NoiseScale float64
}

// DefaultAdditiveConfig returns a trend with yearly and weekly seasonality.
func DefaultAdditiveConfig() AdditiveConfig {
	return AdditiveConfig{
		Changepoints:          25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		YearlyOrder:           10,
		WeeklyOrder:           3,
		IntervalWidth:         0.8,
		NoiseScale:            0.1,
	}
}

const (
	yearlyPeriod = 365.25
	weeklyPeriod = 7.0
)

// AdditiveModel is a piecewise-linear trend plus Fourier seasonality, fitted
// by penalised least squares:
//
//	y(t) = k + m*t + sum_j delta_j*max(0, t-s_j) + yearly(t) + weekly(t)
//
// Changepoint deltas and seasonal coefficients are ridge-penalised; intercept
// and base slope are not. Fitting is deterministic.
type AdditiveModel struct {
	cfg AdditiveConfig

	fitted       bool
	start        time.Time
	last         time.Time
	spanDays     float64
	yScale       float64
	changepoints []float64 // in scaled time
	coef         *mat.VecDense
	sigma        float64 // residual std dev, scaled
	z            float64
}

// NewAdditiveModel returns an unfitted model.
func NewAdditiveModel(cfg AdditiveConfig) *AdditiveModel {
	return &AdditiveModel{cfg: cfg}
}

// NewAdditiveModelFactory returns a ModelFactory producing AdditiveModels.
func NewAdditiveModelFactory(cfg AdditiveConfig) ModelFactory {
	return func() Model { return NewAdditiveModel(cfg) }
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

func epochDays(t time.Time) float64 {
	return float64(t.Unix()) / secondsPerDay
}

func (m *AdditiveModel) numFeatures() int {
	return 2 + len(m.changepoints) + 2*m.cfg.YearlyOrder + 2*m.cfg.WeeklyOrder
}

// features writes the design row for date d into row.
func (m *AdditiveModel) features(d time.Time, row []float64) {
	t := daysBetween(m.start, d) / m.spanDays
	row[0] = 1
	row[1] = t
	i := 2
	for _, s := range m.changepoints {
		row[i] = math.Max(0, t-s)
		i++
	}
	e := epochDays(d)
	i = fourier(e, yearlyPeriod, m.cfg.YearlyOrder, row, i)
	fourier(e, weeklyPeriod, m.cfg.WeeklyOrder, row, i)
}

func fourier(day, period float64, order int, row []float64, i int) int {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * day / period
		row[i] = math.Sin(x)
		row[i+1] = math.Cos(x)
		i += 2
	}
	return i
}

// placeChangepoints spreads changepoints evenly over the observed dates in the
// first ChangepointRange of the history.
func (m *AdditiveModel) placeChangepoints(series model.DailySeries) {
	n := len(series)
	histSize := int(math.Floor(float64(n) * m.cfg.ChangepointRange))
	count := m.cfg.Changepoints
	if count+1 > histSize {
		count = histSize - 1
	}
	m.changepoints = nil
	if count <= 0 {
		return
	}
	m.changepoints = make([]float64, 0, count)
	for i := 1; i <= count; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(count)))
		m.changepoints = append(m.changepoints, daysBetween(m.start, series[idx].Date)/m.spanDays)
	}
}

// Fit estimates the model coefficients from series, which must be ordered by date.
func (m *AdditiveModel) Fit(series model.DailySeries) error {
	n := len(series)
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 points, got %d", apperrors.ErrModelFit, n)
	}

	m.fitted = false
	m.start = series[0].Date
	m.last = series.LastDate()
	m.spanDays = daysBetween(m.start, m.last)
	if m.spanDays <= 0 {
		return fmt.Errorf("%w: history spans no time", apperrors.ErrModelFit)
	}

	m.yScale = 0
	for _, p := range series {
		m.yScale = math.Max(m.yScale, math.Abs(p.Sales))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	m.placeChangepoints(series)
	p := m.numFeatures()
	penalised := p - 2

	rows := n + penalised
	design := mat.NewDense(rows, p, nil)
	target := mat.NewVecDense(rows, nil)

	row := make([]float64, p)
	for i, pt := range series {
		m.features(pt.Date, row)
		design.SetRow(i, row)
		target.SetVec(i, pt.Sales/m.yScale)
	}

	noise := m.cfg.NoiseScale * m.cfg.NoiseScale
	cpWeight := math.Sqrt(noise / (m.cfg.ChangepointPriorScale * m.cfg.ChangepointPriorScale))
	seasonWeight := math.Sqrt(noise / (m.cfg.SeasonalityPriorScale * m.cfg.SeasonalityPriorScale))
	for j := 0; j < penalised; j++ {
		w := seasonWeight
		if j < len(m.changepoints) {
			w = cpWeight
		}
		design.Set(n+j, 2+j, w)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, target); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("%w: %v", apperrors.ErrModelFit, err)
		}
	}

	var sse float64
	for _, pt := range series {
		m.features(pt.Date, row)
		r := pt.Sales/m.yScale - mat.Dot(mat.NewVecDense(p, row), &coef)
		sse += r * r
	}
	dof := n - 2
	if dof < 1 {
		dof = 1
	}
	m.sigma = math.Sqrt(sse / float64(dof))

	width := m.cfg.IntervalWidth
	if width <= 0 || width >= 1 {
		width = DefaultAdditiveConfig().IntervalWidth
	}
	m.z = distuv.UnitNormal.Quantile((1 + width) / 2)

	m.coef = &coef
	m.fitted = true
	return nil
}

// Predict returns a forecast point for every date. The interval widens with
// distance past the last fitted date.
func (m *AdditiveModel) Predict(dates []time.Time) ([]model.ForecastPoint, error) {
	if !m.fitted {
		return nil, apperrors.ErrModelNotFitted
	}

	p := m.numFeatures()
	row := make([]float64, p)
	x := mat.NewVecDense(p, row)
	out := make([]model.ForecastPoint, len(dates))
	for i, d := range dates {
		m.features(d, row)
		yhat := mat.Dot(x, m.coef) * m.yScale

		h := math.Max(0, daysBetween(m.last, d))
		half := m.z * m.sigma * m.yScale * math.Sqrt(1+h/m.spanDays)

		out[i] = model.ForecastPoint{
			Date:      d,
			Yhat:      yhat,
			YhatLower: yhat - half,
			YhatUpper: yhat + half,
		}
	}
	return out, nil
}
