package service

import (
	"context"
	"fmt"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/repository"
)

// DashboardTopProducts is the number of products in the dashboard top list.
const DashboardTopProducts = 10

// DashboardService computes descriptive metrics over a session's prepared table.
type DashboardService struct {
	sessions  *SessionService
	salesRepo *repository.SalesRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(sessions *SessionService, salesRepo *repository.SalesRepository) *DashboardService {
	return &DashboardService{
		sessions:  sessions,
		salesRepo: salesRepo,
	}
}

// Summary returns total sales, the number of products, the top products by
// all-time sales and the overall daily sales trend.
func (s *DashboardService) Summary(ctx context.Context, sessionID string) (*model.DashboardSummary, error) {
	if err := s.sessions.RequirePrepared(sessionID); err != nil {
		return nil, err
	}

	total, err := s.salesRepo.TotalSales(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToBuildDashboard, err)
	}
	products, err := s.salesRepo.UniqueProducts(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToBuildDashboard, err)
	}
	top, err := s.salesRepo.TopProducts(ctx, sessionID, DashboardTopProducts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToBuildDashboard, err)
	}
	daily, err := s.salesRepo.DailyTotals(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToBuildDashboard, err)
	}

	for i := range top {
		top[i].Sales = round(top[i].Sales)
	}
	for i := range daily {
		daily[i].Sales = round(daily[i].Sales)
	}

	return &model.DashboardSummary{
		TotalSales:          round(total),
		TotalSalesFormatted: FormatCurrency(total),
		UniqueProducts:      products,
		TopProducts:         top,
		DailySales:          daily,
	}, nil
}
