package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/forecast"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/repository"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/service"
)

// Services bundles the services wired against one test database.
type Services struct {
	Sales     *repository.SalesRepository
	Analysis  *service.AnalysisService
	Sessions  *service.SessionService
	Dashboard *service.DashboardService
	System    *service.SystemService
}

// NewTestAnalysisService creates an AnalysisService with the default forecaster.
func NewTestAnalysisService(t *testing.T) *service.AnalysisService {
	t.Helper()

	return service.NewAnalysisService(
		forecast.NewForecaster(forecast.Config{}),
		service.AnalysisOptions{},
		nil,
		logging.NewNop(),
	)
}

// NewTestServices wires every service against db.
func NewTestServices(t *testing.T, db *sql.DB) *Services {
	t.Helper()

	salesRepo := repository.NewSalesRepository(db)
	analysis := NewTestAnalysisService(t)
	sessions := service.NewSessionService(
		salesRepo,
		analysis,
		service.SessionOptions{TTL: time.Hour},
		nil,
		logging.NewNop(),
	)

	return &Services{
		Sales:     salesRepo,
		Analysis:  analysis,
		Sessions:  sessions,
		Dashboard: service.NewDashboardService(sessions, salesRepo),
		System:    service.NewSystemService(db, sessions),
	}
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}
