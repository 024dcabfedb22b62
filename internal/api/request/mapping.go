package request

import "github.com/ndewijer/Sales-Forecast-Backend/internal/model"

// ColumnMappingRequest assigns uploaded columns to the canonical roles.
// Either salesColumn, or quantityColumn together with priceColumn, is required.
type ColumnMappingRequest struct {
	ProductColumn  string `json:"productColumn" validate:"required,max=256"`
	DateColumn     string `json:"dateColumn" validate:"required,max=256"`
	SalesColumn    string `json:"salesColumn" validate:"required_without_all=QuantityColumn PriceColumn,max=256"`
	QuantityColumn string `json:"quantityColumn" validate:"required_with=PriceColumn,max=256"`
	PriceColumn    string `json:"priceColumn" validate:"required_with=QuantityColumn,max=256"`
}

// ToModel converts the request to a column mapping.
func (r ColumnMappingRequest) ToModel() model.ColumnMapping {
	return model.ColumnMapping{
		ProductColumn:  r.ProductColumn,
		DateColumn:     r.DateColumn,
		SalesColumn:    r.SalesColumn,
		QuantityColumn: r.QuantityColumn,
		PriceColumn:    r.PriceColumn,
	}
}
