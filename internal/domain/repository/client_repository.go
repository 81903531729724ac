package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/pkg/pagination"
)

// ClientFilterParams narrows client listings. A nil SalespersonID lists
// every client.
type ClientFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string
	SalespersonID *uuid.UUID
}

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	Update(ctx context.Context, client *entity.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *ClientFilterParams) ([]entity.Client, int64, error)
	Count(ctx context.Context, salespersonID *uuid.UUID) (int64, error)
}
