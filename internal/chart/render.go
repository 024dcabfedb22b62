// Package chart builds the chart description for a single product forecast.
package chart

import (
	"fmt"
	"time"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// Series names and styling.
const (
	HistoricalSeries = "Historical Sales"
	ForecastSeries   = "Forecasted Sales"

	forecastColor = "red"
	bandFill      = "rgba(255,0,0,0.15)"
	peakColor     = "green"
)

// Render converts a product forecast into a chart with the historical line,
// the forecast line, a shaded band between the bounds, and a marker with a
// label at the peak when the forecast has one.
func Render(pf *model.ProductForecast) model.ChartSpec {
	spec := model.ChartSpec{
		Title:       fmt.Sprintf("Sales Forecast for '%s'", pf.ProductName),
		XAxisTitle:  "Date",
		YAxisTitle:  "Sales",
		LegendTitle: "Legend",
	}

	hist := model.ChartSeries{
		Name:       HistoricalSeries,
		Mode:       "lines",
		X:          make([]string, len(pf.HistoricalData)),
		Y:          make([]float64, len(pf.HistoricalData)),
		ShowLegend: true,
	}
	for i, p := range pf.HistoricalData {
		hist.X[i] = formatDate(p.Date)
		hist.Y[i] = p.Sales
	}

	n := len(pf.ForecastData)
	fc := model.ChartSeries{
		Name:       ForecastSeries,
		Mode:       "lines",
		X:          make([]string, n),
		Y:          make([]float64, n),
		Line:       &model.LineStyle{Color: forecastColor, Dash: "dash"},
		ShowLegend: true,
	}

	// The band is a closed polygon: upper bounds forward, lower bounds back.
	band := model.ChartSeries{
		Mode:      "lines",
		X:         make([]string, 2*n),
		Y:         make([]float64, 2*n),
		Fill:      "toself",
		FillColor: bandFill,
		Line:      &model.LineStyle{Color: "rgba(255,255,255,0)"},
		HoverInfo: "skip",
	}
	for i, p := range pf.ForecastData {
		d := formatDate(p.Date)
		fc.X[i] = d
		fc.Y[i] = p.Yhat

		band.X[i] = d
		band.Y[i] = p.YhatUpper
		band.X[2*n-1-i] = d
		band.Y[2*n-1-i] = p.YhatLower
	}

	spec.Series = []model.ChartSeries{hist, fc, band}

	if pf.PeakInfo.PeakDate != nil {
		x := formatDate(*pf.PeakInfo.PeakDate)
		spec.Shapes = []model.ChartShape{{
			Type: "vline",
			X:    x,
			Line: model.LineStyle{Color: peakColor, Dash: "dash", Width: 2},
		}}
		spec.Annotations = []model.ChartAnnotation{{
			X:         x,
			Y:         pf.PeakInfo.PeakSales,
			Text:      "Peak Month: " + pf.PeakInfo.PeakMonth,
			ShowArrow: true,
			ArrowHead: 1,
			YShift:    10,
		}}
	}
	return spec
}

func formatDate(t time.Time) string {
	return t.Format(model.DateLayout)
}
