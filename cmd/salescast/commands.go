package main

import (
	"github.com/spf13/cobra"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/chart"
)

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Forecast every product and print the predicted bestsellers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPipeline(cmd.Context(), opts, args[0], top)
			if err != nil {
				return err
			}
			defer p.close()

			result, err := p.sessions.RunForecast(cmd.Context(), p.sessionID)
			if err != nil {
				return err
			}
			return writeLeaderboard(cmd.OutOrStdout(), opts.output, result)
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "number of leaderboard entries (default 5)")
	return cmd
}

func newChartCommand(opts *rootOptions) *cobra.Command {
	var product string

	cmd := &cobra.Command{
		Use:   "chart FILE",
		Short: "Print the forecast chart description for one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPipeline(cmd.Context(), opts, args[0], 0)
			if err != nil {
				return err
			}
			defer p.close()

			if _, err := p.sessions.RunForecast(cmd.Context(), p.sessionID); err != nil {
				return err
			}
			pf, err := p.sessions.ProductForecast(p.sessionID, product)
			if err != nil {
				return err
			}
			return writeStructured(cmd.OutOrStdout(), opts.output, chart.Render(pf))
		},
	}
	cmd.Flags().StringVar(&product, "product", "", "product to chart")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func newDashboardCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard FILE",
		Short: "Print total sales, product count, top products and the daily trend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openPipeline(cmd.Context(), opts, args[0], 0)
			if err != nil {
				return err
			}
			defer p.close()

			summary, err := p.dashboard.Summary(cmd.Context(), p.sessionID)
			if err != nil {
				return err
			}
			return writeDashboard(cmd.OutOrStdout(), opts.output, summary)
		},
	}
}
