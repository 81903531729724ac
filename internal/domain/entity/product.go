package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GlobalCountry marks a product offered in every country.
const GlobalCountry = "Global"

// Product is a catalog entry. Prices carry three decimal places.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	PackSize    string          `gorm:"size:100" json:"pack_size"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,3);not null;default:0" json:"unit_price"`
	Country     string          `gorm:"size:100;not null;default:'Global';index" json:"country"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Country == "" {
		p.Country = GlobalCountry
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// AvailableIn reports whether the product may be quoted by someone based in
// country. Users without a specific country see everything.
func (p *Product) AvailableIn(country string) bool {
	if country == "" || country == GlobalCountry {
		return true
	}
	return p.Country == GlobalCountry || p.Country == country
}
