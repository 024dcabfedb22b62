package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/config"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/database"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/forecast"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/logging"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/repository"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/service"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/version"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	productCol  string
	dateCol     string
	salesCol    string
	quantityCol string
	priceCol    string
	output      string
	logLevel    string
	workers     int
}

func (o *rootOptions) mapping() model.ColumnMapping {
	return model.ColumnMapping{
		ProductColumn:  o.productCol,
		DateColumn:     o.dateCol,
		SalesColumn:    o.salesCol,
		QuantityColumn: o.quantityCol,
		PriceColumn:    o.priceCol,
	}
}

func (o *rootOptions) validateOutput() error {
	switch o.output {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", o.output)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "salescast",
		Short:         "Forecast product sales from a CSV export",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.validateOutput()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.productCol, "product-col", model.ColumnProductName, "column holding the product name")
	pf.StringVar(&opts.dateCol, "date-col", model.ColumnOrderDate, "column holding the order date")
	pf.StringVar(&opts.salesCol, "sales-col", "", "column holding the sales amount (default \"Sales\" unless quantity and price are given)")
	pf.StringVar(&opts.quantityCol, "quantity-col", "", "column holding the quantity, used with --price-col")
	pf.StringVar(&opts.priceCol, "price-col", "", "column holding the unit price, used with --quantity-col")
	pf.StringVarP(&opts.output, "output", "o", outputTable, "output format (table, json, yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.IntVar(&opts.workers, "workers", 1, "products forecast in parallel")

	cmd.AddCommand(
		newAnalyzeCommand(opts),
		newChartCommand(opts),
		newDashboardCommand(opts),
	)
	return cmd
}

// pipeline is the service stack behind one CLI invocation, staged in an
// in-memory database.
type pipeline struct {
	sessions  *service.SessionService
	dashboard *service.DashboardService
	sessionID string
	close     func() error
}

// openPipeline uploads path and applies the mapping from opts.
// leaderboardSize <= 0 keeps the configured default.
func openPipeline(ctx context.Context, opts *rootOptions, path string, leaderboardSize int) (*pipeline, error) {
	cfg := config.Defaults()
	cfg.Log.Level = opts.logLevel
	cfg.Log.Format = "console"
	cfg.Log.OutputPaths = []string{"stderr"}
	if leaderboardSize > 0 {
		cfg.Forecast.LeaderboardSize = leaderboardSize
	}
	if opts.workers > 0 {
		cfg.Forecast.Workers = opts.workers
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(database.MemoryPath)
	if err != nil {
		return nil, err
	}

	salesRepo := repository.NewSalesRepository(db)
	modelCfg := forecast.DefaultAdditiveConfig()
	modelCfg.IntervalWidth = cfg.Forecast.IntervalWidth
	analysis := service.NewAnalysisService(
		forecast.NewForecaster(forecast.Config{
			HorizonDays:   cfg.Forecast.HorizonDays,
			MinDataPoints: cfg.Forecast.MinDataPoints,
			NewModel:      forecast.NewAdditiveModelFactory(modelCfg),
		}),
		service.AnalysisOptions{
			LeaderboardSize: cfg.Forecast.LeaderboardSize,
			Workers:         cfg.Forecast.Workers,
		},
		nil,
		logger,
	)
	sessions := service.NewSessionService(salesRepo, analysis, service.SessionOptions{TTL: cfg.Session.TTL}, nil, logger)

	p := &pipeline{
		sessions:  sessions,
		dashboard: service.NewDashboardService(sessions, salesRepo),
		close:     db.Close,
	}

	f, err := os.Open(path)
	if err != nil {
		p.close()
		return nil, err
	}
	defer f.Close()

	res, err := sessions.Upload(f)
	if err != nil {
		p.close()
		return nil, err
	}
	p.sessionID = res.Session.ID

	m := opts.mapping()
	if m.SalesColumn == "" && !m.ComputesSales() {
		m.SalesColumn = model.ColumnSales
	}
	if _, err := sessions.ApplyMapping(ctx, p.sessionID, m); err != nil {
		p.close()
		return nil, err
	}
	return p, nil
}
