package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/service"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7A89"))
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// writeStructured writes v as JSON or YAML. The table format falls back to JSON.
func writeStructured(w io.Writer, format string, v interface{}) error {
	if format == outputYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type leaderboardRow struct {
	Rank               int    `json:"rank" yaml:"rank"`
	ProductName        string `json:"productName" yaml:"product_name"`
	PredictedPeakMonth string `json:"predictedPeakMonth" yaml:"predicted_peak_month"`
	EstimatedPeakSales string `json:"estimatedPeakSales" yaml:"estimated_peak_sales"`
}

func writeLeaderboard(w io.Writer, format string, result *model.AnalysisResult) error {
	rows := make([]leaderboardRow, 0, len(result.Leaderboard))
	for i, e := range result.Leaderboard {
		rows = append(rows, leaderboardRow{
			Rank:               i + 1,
			ProductName:        e.ProductName,
			PredictedPeakMonth: e.PredictedPeakMonth,
			EstimatedPeakSales: e.EstimatedPeakSales,
		})
	}

	if format != outputTable {
		return writeStructured(w, format, rows)
	}

	fmt.Fprintln(w, titleStyle.Render("Top Predicted Bestsellers"))
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No product has enough data to forecast."))
		return nil
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{strconv.Itoa(r.Rank), r.ProductName, r.PredictedPeakMonth, r.EstimatedPeakSales})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Product Name", "Predicted Peak Month", "Estimated Peak Sales"}, cells))
	return nil
}

func writeDashboard(w io.Writer, format string, summary *model.DashboardSummary) error {
	if format != outputTable {
		return writeStructured(w, format, summary)
	}

	fmt.Fprintln(w, titleStyle.Render("Sales Overview"))
	fmt.Fprintf(w, "Total Sales:     %s\n", summary.TotalSalesFormatted)
	fmt.Fprintf(w, "Unique Products: %d\n\n", summary.UniqueProducts)

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Top %d Products by Sales", len(summary.TopProducts))))
	cells := make([][]string, 0, len(summary.TopProducts))
	for _, p := range summary.TopProducts {
		cells = append(cells, []string{p.ProductName, service.FormatCurrency(p.Sales)})
	}
	fmt.Fprintln(w, renderTable([]string{"Product Name", "Sales"}, cells))

	if n := len(summary.DailySales); n > 0 {
		first, last := summary.DailySales[0], summary.DailySales[n-1]
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Daily trend: %d days, %s to %s",
			n, first.Date.Format(model.DateLayout), last.Date.Format(model.DateLayout))))
	}
	return nil
}
