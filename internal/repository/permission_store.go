package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/redisdb"
)

const (
	permissionKey     = "reminder:permission"
	cooldownKeyPrefix = "reminder:shown:"
)

// PermissionStore persists the tri-state notification permission and the
// per-notification delivery cooldown keys
type PermissionStore struct {
	client *redisdb.RedisClient
}

// NewPermissionStore creates a new permission store
func NewPermissionStore(client *redisdb.RedisClient) *PermissionStore {
	return &PermissionStore{client: client}
}

// Get returns the current permission state, defaulting to "default"
func (s *PermissionStore) Get(ctx context.Context) (domain.PermissionState, error) {
	value, err := s.client.Client().Get(ctx, permissionKey).Result()
	if err != nil {
		if isRedisNil(err) {
			return domain.PermissionDefault, nil
		}
		return domain.PermissionDefault, errors.NewStorageUnavailableError("failed to read permission", err)
	}
	return domain.PermissionState(value), nil
}

// Set records a permission decision. Denied is sticky: once denied the state
// never changes again, matching the browser's no-re-prompt behavior.
func (s *PermissionStore) Set(ctx context.Context, state domain.PermissionState) (domain.PermissionState, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return current, err
	}
	if current == domain.PermissionDenied {
		return domain.PermissionDenied, nil
	}
	if err := s.client.Client().Set(ctx, permissionKey, string(state), 0).Err(); err != nil {
		return current, errors.NewStorageUnavailableError("failed to write permission", err)
	}
	return state, nil
}

// TryCooldown sets the delivery cooldown key for a notification id. It
// returns true when the key was newly set, false when the id is still inside
// its cooldown window.
func (s *PermissionStore) TryCooldown(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Client().SetNX(ctx, cooldownKeyPrefix+id, 1, ttl).Result()
	if err != nil {
		return false, errors.NewStorageUnavailableError("failed to set delivery cooldown", err)
	}
	return ok, nil
}

func isRedisNil(err error) bool {
	return err == redis.Nil
}
