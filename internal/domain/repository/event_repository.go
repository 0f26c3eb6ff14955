package repository

import (
	"context"
	"time"

	"github.com/kalenso/kalenso/internal/domain/entity"
)

// EventRepository defines the interface for calendar-event storage.
type EventRepository interface {
	Create(ctx context.Context, e *entity.Event) error
	GetByID(ctx context.Context, id int64) (*entity.Event, error)
	ListByUser(ctx context.Context, userID int64, from, to time.Time) ([]entity.Event, error)
	Update(ctx context.Context, e *entity.Event) error
	Delete(ctx context.Context, id int64) error
}
