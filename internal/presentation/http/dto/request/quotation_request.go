package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationRequest represents a draft create or update request
type QuotationRequest struct {
	ClientID     uuid.UUID              `json:"client_id"`
	IssueDate    string                 `json:"issue_date"`
	IntroText    string                 `json:"intro_text"`
	ClosingText  string                 `json:"closing_text"`
	Validity     string                 `json:"validity" binding:"max=255"`
	Delivery     string                 `json:"delivery" binding:"max=255"`
	PaymentTerms string                 `json:"payment_terms" binding:"max=255"`
	Warranty     string                 `json:"warranty" binding:"max=255"`
	Shipping     string                 `json:"shipping" binding:"max=255"`
	Items        []QuotationItemRequest `json:"items" binding:"required,min=1,dive"`
}

// QuotationItemRequest represents a line item in the request. Either a
// product or a name and unit price must be given.
type QuotationItemRequest struct {
	ProductID   *uuid.UUID       `json:"product_id"`
	Name        string           `json:"name" binding:"max=255"`
	Description string           `json:"description"`
	PackSize    string           `json:"pack_size" binding:"max=100"`
	Quantity    int64            `json:"quantity" binding:"required,min=1"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// ReviewRequest carries the reviewer's note on approve and reject
type ReviewRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

// EmailRequest carries an optional personal note for the client
type EmailRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

// QuotationFilterRequest represents quotation list filters
type QuotationFilterRequest struct {
	Search        string `form:"search"`
	Status        string `form:"status"`
	ClientID      string `form:"client_id"`
	SalespersonID string `form:"salesperson_id"`
	From          string `form:"from"`
	To            string `form:"to"`
	SortBy        string `form:"sort_by"`
	SortOrder     string `form:"sort_order"`
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
}
