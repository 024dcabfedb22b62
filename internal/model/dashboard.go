package model

import "time"

// ProductTotal is a product's all-time sales.
type ProductTotal struct {
	ProductName string  `json:"productName"`
	Sales       float64 `json:"sales"`
}

// DailyTotal is the summed sales of all products on one day.
type DailyTotal struct {
	Date  time.Time `json:"date"`
	Sales float64   `json:"sales"`
}

// DashboardSummary is the descriptive overview of a prepared sales table.
type DashboardSummary struct {
	TotalSales          float64        `json:"totalSales"`
	TotalSalesFormatted string         `json:"totalSalesFormatted"`
	UniqueProducts      int            `json:"uniqueProducts"`
	TopProducts         []ProductTotal `json:"topProducts"`
	DailySales          []DailyTotal   `json:"dailySales"`
}
