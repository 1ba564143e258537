package cache

import (
	"context"
	"time"

	"tokokita/backend/internal/domain"
)

type NotificationCache interface {
	Get(ctx context.Context, key string) ([]domain.Notification, bool, error)
	Set(ctx context.Context, key string, value []domain.Notification, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopNotificationCache struct{}

func (NoopNotificationCache) Get(_ context.Context, _ string) ([]domain.Notification, bool, error) {
	return nil, false, nil
}

func (NoopNotificationCache) Set(_ context.Context, _ string, _ []domain.Notification, _ time.Duration) error {
	return nil
}

func (NoopNotificationCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
