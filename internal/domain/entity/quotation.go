package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Quotation is a priced offer to a client. Totals are derived from Items and
// stored for listing and reporting.
type Quotation struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	Number        string               `gorm:"size:32;unique;not null" json:"number"`
	Year          int                  `gorm:"not null;index" json:"year"`
	Sequence      int                  `gorm:"not null" json:"sequence"`
	ClientID      uuid.UUID            `gorm:"type:uuid;not null;index" json:"client_id"`
	SalespersonID uuid.UUID            `gorm:"type:uuid;not null;index" json:"salesperson_id"`
	Status        enum.QuotationStatus `gorm:"default:0;index" json:"status"`
	IssueDate     time.Time            `gorm:"type:date;not null" json:"issue_date"`
	IntroText     string               `gorm:"type:text" json:"intro_text"`
	ClosingText   string               `gorm:"type:text" json:"closing_text"`
	Validity      string               `gorm:"size:255" json:"validity"`
	Delivery      string               `gorm:"size:255" json:"delivery"`
	PaymentTerms  string               `gorm:"size:255" json:"payment_terms"`
	Warranty      string               `gorm:"size:255" json:"warranty,omitempty"`
	Shipping      string               `gorm:"size:255" json:"shipping,omitempty"`
	Currency      string               `gorm:"size:8;not null" json:"currency"`
	Subtotal      decimal.Decimal      `gorm:"type:decimal(15,3);not null;default:0" json:"subtotal"`
	VAT           decimal.Decimal      `gorm:"column:vat;type:decimal(15,3);not null;default:0" json:"vat"`
	GrandTotal    decimal.Decimal      `gorm:"type:decimal(15,3);not null;default:0" json:"grand_total"`
	ReviewedByID  *uuid.UUID           `gorm:"type:uuid" json:"reviewed_by_id,omitempty"`
	ReviewedAt    *time.Time           `json:"reviewed_at,omitempty"`
	ReviewNote    *string              `gorm:"type:text" json:"review_note,omitempty"`
	SentAt        *time.Time           `json:"sent_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	DeletedAt     gorm.DeletedAt       `gorm:"index" json:"-"`

	// Relationships
	Client      *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Salesperson *User           `gorm:"foreignKey:SalespersonID" json:"salesperson,omitempty"`
	Items       []QuotationItem `gorm:"foreignKey:QuotationID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new quotation
func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Quotation model
func (Quotation) TableName() string {
	return "quotations"
}

// QuotationNumber formats the human identifier, e.g. QTN-2026-007.
func QuotationNumber(year, sequence int) string {
	return fmt.Sprintf("QTN-%d-%03d", year, sequence)
}

// QuotationItem is one line of a quotation. Name, description and price are
// snapshots taken when the line was saved.
type QuotationItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	QuotationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"quotation_id"`
	Position    int             `gorm:"not null" json:"position"`
	ProductID   *uuid.UUID      `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	PackSize    string          `gorm:"size:100" json:"pack_size"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(15,3);not null" json:"line_total"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates a UUID before creating a new quotation item
func (qi *QuotationItem) BeforeCreate(tx *gorm.DB) error {
	if qi.ID == uuid.Nil {
		qi.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the QuotationItem model
func (QuotationItem) TableName() string {
	return "quotation_items"
}

// QuotationCounter holds the last sequence issued for a year.
type QuotationCounter struct {
	Year      int       `gorm:"primaryKey;autoIncrement:false" json:"year"`
	Value     int       `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuotationCounter) TableName() string {
	return "quotation_counters"
}

var countryCurrencies = map[string]string{
	"Oman":                 "OMR",
	"UAE":                  "AED",
	"United Arab Emirates": "AED",
	"India":                "INR",
	"Saudi Arabia":         "SAR",
	"Qatar":                "QAR",
	"Bahrain":              "BHD",
	"Kuwait":               "KWD",
}

// CurrencyForCountry maps a salesperson's country to a currency code,
// falling back to def.
func CurrencyForCountry(country, def string) string {
	if c, ok := countryCurrencies[country]; ok {
		return c
	}
	return def
}
