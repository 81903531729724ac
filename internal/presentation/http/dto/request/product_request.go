package request

import "github.com/shopspring/decimal"

// ProductRequest represents a catalog create or update request
type ProductRequest struct {
	Name        string          `json:"name" binding:"required,min=2,max=255"`
	Description string          `json:"description"`
	PackSize    string          `json:"pack_size" binding:"max=100"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Country     string          `json:"country" binding:"max=100"`
	IsActive    *bool           `json:"is_active"`
}

// ListRequest represents common list parameters
type ListRequest struct {
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}
