package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/api"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/config"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/database"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/forecast"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/metrics"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/repository"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/service"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Default().Fatal("failed to load configuration", logging.Err(err))
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		logging.Default().Fatal("failed to create logger", logging.Err(err))
	}
	logging.SetDefault(logger)
	defer logger.Sync() //nolint:errcheck // nothing to do if flushing fails on exit

	// Open the staging database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", logging.Err(err))
	}
	defer db.Close()

	logger.Info("connected to database", logging.String("path", cfg.Database.Path))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Create repositories
	salesRepo := repository.NewSalesRepository(db)

	// Create services
	modelCfg := forecast.DefaultAdditiveConfig()
	modelCfg.IntervalWidth = cfg.Forecast.IntervalWidth
	forecaster := forecast.NewForecaster(forecast.Config{
		HorizonDays:   cfg.Forecast.HorizonDays,
		MinDataPoints: cfg.Forecast.MinDataPoints,
		NewModel:      forecast.NewAdditiveModelFactory(modelCfg),
	})
	analysisService := service.NewAnalysisService(
		forecaster,
		service.AnalysisOptions{
			LeaderboardSize: cfg.Forecast.LeaderboardSize,
			Workers:         cfg.Forecast.Workers,
		},
		m,
		logger,
	)
	sessionService := service.NewSessionService(
		salesRepo,
		analysisService,
		service.SessionOptions{
			TTL:           cfg.Session.TTL,
			SweepSchedule: cfg.Session.SweepSchedule,
		},
		m,
		logger,
	)
	dashboardService := service.NewDashboardService(sessionService, salesRepo)
	systemService := service.NewSystemService(db, sessionService)

	if err := sessionService.StartSweeper(); err != nil {
		logger.Fatal("failed to start session sweeper", logging.Err(err))
	}
	defer sessionService.StopSweeper()

	// Create router
	router := api.NewRouter(api.Services{
		System:    systemService,
		Sessions:  sessionService,
		Dashboard: dashboardService,
	}, cfg, m, logger)

	// Forecast runs can take a while for large uploads, so writes get more room than reads.
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server", logging.String("addr", cfg.Server.Addr), logging.String("version", version.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed to start", logging.Err(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", logging.Err(err))
		return
	}

	logger.Info("server exited")
}
