package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// StatusCount is the number of quotations in one status
type StatusCount struct {
	Status enum.QuotationStatus
	Count  int64
}

// SalespersonSummary aggregates one salesperson's quotations
type SalespersonSummary struct {
	SalespersonID   uuid.UUID
	SalespersonName string
	Draft           int64
	Sent            int64
	Approved        int64
	Rejected        int64
	ApprovedTotal   decimal.Decimal
}

// MonthlyTotal is the approved grand total for one calendar month
type MonthlyTotal struct {
	Month string
	Count int64
	Total decimal.Decimal
}

// AnalyticsRepository defines aggregation queries for dashboards. A nil
// salesperson ID aggregates over everyone.
type AnalyticsRepository interface {
	StatusCounts(ctx context.Context, salespersonID *uuid.UUID) ([]StatusCount, error)
	ApprovedTotal(ctx context.Context, salespersonID *uuid.UUID) (decimal.Decimal, error)
	SalespersonSummaries(ctx context.Context) ([]SalespersonSummary, error)
	MonthlyApproved(ctx context.Context, salespersonID *uuid.UUID, months int) ([]MonthlyTotal, error)
}
