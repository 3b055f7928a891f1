package mothers

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Mother) error
	GetByID(ctx context.Context, id uuid.UUID) (*Mother, error)
	GetByPhone(ctx context.Context, phone string) (*Mother, error)
	Update(ctx context.Context, m *Mother) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Mother, int, error)
	ListByCounty(ctx context.Context, county string, limit, offset int) ([]*Mother, int, error)
}
