package delivery

import (
	"context"

	"github.com/google/uuid"
)

type DeliveryRepository interface {
	// Create inserts the delivery unless one already exists for the
	// pregnancy. Reports whether a row was created.
	Create(ctx context.Context, d *Delivery) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Delivery, error)
	GetByPregnancy(ctx context.Context, pregnancyID uuid.UUID) (*Delivery, error)
	Update(ctx context.Context, d *Delivery) error
	List(ctx context.Context, limit, offset int) ([]*Delivery, int, error)
}

type BabyRepository interface {
	Create(ctx context.Context, b *Baby) error
	GetByID(ctx context.Context, id uuid.UUID) (*Baby, error)
	Update(ctx context.Context, b *Baby) error
	ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]*Baby, error)
	ListByMother(ctx context.Context, motherID uuid.UUID) ([]*Baby, error)
	List(ctx context.Context, limit, offset int) ([]*Baby, int, error)
}
