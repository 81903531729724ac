package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
	"github.com/sangkips/quotation-api/internal/domain/enum"
	"github.com/sangkips/quotation-api/pkg/pagination"
)

// UserFilterParams narrows user listings
type UserFilterParams struct {
	Pagination *pagination.PaginationParams
	Search     string
	Role       *enum.Role
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *UserFilterParams) ([]entity.User, int64, error)
}

// LoginAuditRepository records sign-ins
type LoginAuditRepository interface {
	Create(ctx context.Context, audit *entity.LoginAudit) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.LoginAudit, error)
}
