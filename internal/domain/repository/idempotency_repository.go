package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quotation-api/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses
type IdempotencyRepository interface {
	// GetByKey returns nil when the key is unknown for that user
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	Create(ctx context.Context, ikey *entity.IdempotencyKey) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
