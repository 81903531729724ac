package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy limits a query to rows whose salesperson_id matches. A nil ID
// leaves the query unfiltered for roles that see every record.
func OwnedBy(salespersonID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if salespersonID == nil {
			return db
		}
		return db.Where("salesperson_id = ?", *salespersonID)
	}
}

// AvailableIn limits products to a country plus global entries.
func AvailableIn(country string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if country == "" {
			return db
		}
		return db.Where("country = ? OR country = ?", country, "Global")
	}
}
