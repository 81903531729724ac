package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/pkg/pagination"
)

// QuotationRepository defines the interface for quotation data operations
type QuotationRepository interface {
	// Create stores the quotation and its items in one transaction.
	Create(ctx context.Context, quotation *entity.Quotation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Quotation, error)
	GetByNumber(ctx context.Context, number string) (*entity.Quotation, error)
	// GetWithItems loads client, salesperson and items ordered by position.
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.Quotation, error)
	// Update saves the header and replaces the items in one transaction. It
	// reports false, and writes nothing, when the stored quotation is no
	// longer a draft.
	Update(ctx context.Context, quotation *entity.Quotation) (bool, error)
	// UpdateStatus moves a quotation from one status to another. It reports
	// false when the stored status was no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from enum.QuotationStatus, change StatusChange) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *QuotationFilterParams) ([]entity.Quotation, int64, error)
}

// StatusChange is the set of columns written on a status transition
type StatusChange struct {
	Status       enum.QuotationStatus
	ReviewedByID *uuid.UUID
	ReviewedAt   *time.Time
	ReviewNote   *string
	SentAt       *time.Time
}

// QuotationFilterParams contains filtering parameters for quotation queries
type QuotationFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string
	Status        *enum.QuotationStatus
	ClientID      *uuid.UUID
	SalespersonID *uuid.UUID
	From          *time.Time
	To            *time.Time
	SortBy        string
	SortOrder     string
}

// CounterRepository hands out quotation sequence numbers
type CounterRepository interface {
	// Next returns the next sequence for year. Concurrent callers never
	// receive the same value.
	Next(ctx context.Context, year int) (int, error)
}
