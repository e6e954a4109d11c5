package service

import (
	"context"
	"time"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
)

// NotificationStore is the persistence surface the reminder services depend
// on. The mongo-backed repository satisfies it in production; tests use an
// in-memory fake.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.ScheduledNotification) error
	FindByID(ctx context.Context, id string) (*domain.ScheduledNotification, error)
	FindAll(ctx context.Context) ([]*domain.ScheduledNotification, error)
	FindByTaskID(ctx context.Context, taskID string) ([]*domain.ScheduledNotification, error)
	FindDueUntriggered(ctx context.Context, now time.Time) ([]*domain.ScheduledNotification, error)
	MarkTriggered(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteByTaskID(ctx context.Context, taskID string) (int64, error)
}
