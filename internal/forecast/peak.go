package forecast

import (
	"time"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

// ExtractPeak returns the forecast point with the highest estimate strictly
// after last. The earliest such point wins a tie. With no future points the
// peak is unavailable: no date, zero sales and the "N/A" label.
func ExtractPeak(points []model.ForecastPoint, last time.Time) model.PeakInfo {
	best := -1
	for i, p := range points {
		if !p.Date.After(last) {
			continue
		}
		if best < 0 || p.Yhat > points[best].Yhat {
			best = i
		}
	}
	if best < 0 {
		return model.PeakInfo{PeakMonth: model.PeakMonthUnavailable}
	}

	date := points[best].Date
	return model.PeakInfo{
		PeakDate:  &date,
		PeakSales: points[best].Yhat,
		PeakMonth: date.Format(model.PeakMonthLayout),
	}
}
