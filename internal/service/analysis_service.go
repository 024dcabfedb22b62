package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/forecast"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/metrics"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

var tracer = otel.Tracer("salescast.service")

// ProductForecaster forecasts one product. *forecast.Forecaster implements it.
type ProductForecaster interface {
	Forecast(ctx context.Context, name string, records []model.CanonicalRecord) (*model.ProductForecast, error)
}

// AnalysisOptions configures an AnalysisService.
type AnalysisOptions struct {
	LeaderboardSize int
	// Workers is the number of products fitted at once. 1 runs strictly sequentially.
	Workers int
}

// AnalysisService runs the forecaster over every product of a canonical table
// and ranks the results.
type AnalysisService struct {
	forecaster ProductForecaster
	opts       AnalysisOptions
	metrics    *metrics.Metrics
	logger     logging.Logger
}

// NewAnalysisService creates a new AnalysisService. metrics may be nil.
func NewAnalysisService(forecaster ProductForecaster, opts AnalysisOptions, m *metrics.Metrics, logger logging.Logger) *AnalysisService {
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 5
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AnalysisService{
		forecaster: forecaster,
		opts:       opts,
		metrics:    m,
		logger:     logger.Named("analysis"),
	}
}

// Analyze forecasts every distinct product of records, in first-appearance order.
//
// Products with too little data, or whose model fails, are left out of the
// result and logged. If no product produces a forecast the result is empty,
// which is not an error. The only error is a cancelled context.
func (s *AnalysisService) Analyze(ctx context.Context, records []model.CanonicalRecord) (*model.AnalysisResult, error) {
	table := &model.CanonicalTable{Records: records}
	order := table.ProductOrder()
	groups := table.GroupByProduct()

	ctx, span := tracer.Start(ctx, "AnalysisService.Analyze",
		trace.WithAttributes(
			attribute.Int("analysis.records", len(records)),
			attribute.Int("analysis.products", len(order)),
			attribute.Int("analysis.workers", s.opts.Workers),
		),
	)
	defer span.End()

	start := time.Now()
	forecasts := make([]*model.ProductForecast, len(order))

	var err error
	if s.opts.Workers == 1 {
		for i, name := range order {
			if err = ctx.Err(); err != nil {
				break
			}
			forecasts[i] = s.analyzeProduct(ctx, name, groups[name])
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.Workers)
		for i, name := range order {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				forecasts[i] = s.analyzeProduct(gctx, name, groups[name])
				return nil
			})
		}
		err = g.Wait()
	}
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis cancelled")
		s.metrics.ObserveAnalysis("cancelled", time.Since(start))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRunForecast, err)
	}

	result := model.EmptyAnalysisResult()
	for i, name := range order {
		if forecasts[i] == nil {
			continue
		}
		result.ProductDetails[name] = forecasts[i]
		result.ProductOrder = append(result.ProductOrder, name)
	}
	result.Leaderboard = model.BuildLeaderboard(result.ProductDetails, result.ProductOrder, s.opts.LeaderboardSize, FormatCurrency)
	result.CompletedAt = time.Now().UTC()

	span.SetAttributes(attribute.Int("analysis.forecasts", len(result.ProductOrder)))
	s.metrics.ObserveAnalysis("success", time.Since(start))
	s.logger.Info("analysis completed",
		logging.Int("products", len(order)),
		logging.Int("forecasts", len(result.ProductOrder)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// analyzeProduct returns nil when the product is skipped.
func (s *AnalysisService) analyzeProduct(ctx context.Context, name string, records []model.CanonicalRecord) *model.ProductForecast {
	ctx, span := tracer.Start(ctx, "AnalysisService.analyzeProduct",
		trace.WithAttributes(
			attribute.String("product.name", name),
			attribute.Int("product.records", len(records)),
		),
	)
	defer span.End()

	start := time.Now()
	pf, err := s.safeForecast(ctx, name, records)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.metrics.ObserveProduct(metrics.OutcomeForecast, elapsed)
		return pf
	case errors.Is(err, apperrors.ErrInsufficientData):
		s.metrics.ObserveProduct(metrics.OutcomeInsufficient, elapsed)
		span.SetAttributes(attribute.Bool("product.skipped", true))
		s.logger.Debug("product skipped", logging.String("product", name), logging.Err(err))
	default:
		s.metrics.ObserveProduct(metrics.OutcomeFailed, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "forecast failed")
		s.logger.Warn("product forecast failed", logging.String("product", name), logging.Err(err))
	}
	return nil
}

// safeForecast contains panics from forecasters that do not recover their own.
func (s *AnalysisService) safeForecast(ctx context.Context, name string, records []model.CanonicalRecord) (pf *model.ProductForecast, err error) {
	defer func() {
		if r := recover(); r != nil {
			pf = nil
			err = fmt.Errorf("%w: %s: panic: %v", apperrors.ErrModelFit, name, r)
		}
	}()
	return s.forecaster.Forecast(ctx, name, records)
}

var _ ProductForecaster = (*forecast.Forecaster)(nil)
