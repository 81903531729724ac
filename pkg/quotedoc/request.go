// Package quotedoc renders a quotation request into a finished, letterheaded PDF.
package quotedoc

import (
	"fmt"
	"time"

	"github.com/sangkips/quotation-api/pkg/pricing"
	"github.com/shopspring/decimal"
)

// Client is the addressee of a quotation.
type Client struct {
	DisplayName string `json:"display_name"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// LineItem is one product line. Its total is derived, never supplied.
type LineItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PackSize    string          `json:"pack_size"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Terms are printed in a fixed order; empty values print as blanks.
type Terms struct {
	Validity     string `json:"validity"`
	Delivery     string `json:"delivery"`
	PaymentTerms string `json:"payment_terms"`
	Warranty     string `json:"warranty,omitempty"`
	Shipping     string `json:"shipping,omitempty"`
}

// Request is everything needed to render one quotation. It is not modified
// by rendering.
type Request struct {
	Identifier      string     `json:"identifier"`
	IssueDate       time.Time  `json:"issue_date"`
	Client          Client     `json:"client"`
	LineItems       []LineItem `json:"line_items"`
	IntroText       string     `json:"intro_text,omitempty"`
	ClosingText     string     `json:"closing_text,omitempty"`
	Terms           Terms      `json:"terms"`
	SalespersonName string     `json:"salesperson_name"`
}

// RenderedDocument is a finished PDF. It belongs to the caller.
type RenderedDocument struct {
	Bytes     []byte
	PageCount int
}

// Filename is the suggested download name for the document.
func (r *Request) Filename() string {
	if r.Identifier == "" {
		return "quotation.pdf"
	}
	return r.Identifier + ".pdf"
}

// Lines returns the pricing view of the line items, in order.
func (r *Request) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(r.LineItems))
	for _, it := range r.LineItems {
		lines = append(lines, pricing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return lines
}

// Validate checks field shapes only. Business rules such as "at least one
// line item" belong to the caller.
func (r *Request) Validate() error {
	var fields []FieldError
	if r.IssueDate.IsZero() {
		fields = append(fields, FieldError{Field: "issue_date", Message: "is required"})
	}
	for i, it := range r.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		if it.Quantity < 0 {
			fields = append(fields, FieldError{Field: prefix + ".quantity", Message: "must not be negative"})
		}
		if it.UnitPrice.IsNegative() {
			fields = append(fields, FieldError{Field: prefix + ".unit_price", Message: "must not be negative"})
		}
		if !pricing.HasValidPrecision(it.UnitPrice) {
			fields = append(fields, FieldError{
				Field:   prefix + ".unit_price",
				Message: fmt.Sprintf("must have at most %d decimal places", pricing.Places),
			})
		}
	}
	if len(fields) > 0 {
		return &InvalidRequestError{Fields: fields}
	}
	return nil
}
