package service

import (
	"database/sql"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/database"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	sessions *SessionService
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB, sessions *SessionService) *SystemService {
	return &SystemService{
		db:       db,
		sessions: sessions,
	}
}

// CheckHealth checks the health of the staging database
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion returns the build version.
func (s *SystemService) CheckVersion() string {
	return version.Version
}

// ActiveSessions returns the number of open sessions.
func (s *SystemService) ActiveSessions() int {
	if s.sessions == nil {
		return 0
	}
	return s.sessions.Count()
}
