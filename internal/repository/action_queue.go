package repository

import (
	"context"
	"encoding/json"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/redisdb"
)

const pendingActionsKey = "reminder:pending_actions"

// ActionQueue is the durable queue of notification actions that arrived while
// no page context was open. It is drained and replayed on the next page open.
type ActionQueue struct {
	client *redisdb.RedisClient
}

// NewActionQueue creates a new pending-action queue
func NewActionQueue(client *redisdb.RedisClient) *ActionQueue {
	return &ActionQueue{client: client}
}

// Enqueue appends an action to the pending queue
func (q *ActionQueue) Enqueue(ctx context.Context, action domain.NotificationAction) error {
	payload, err := json.Marshal(action)
	if err != nil {
		return errors.NewInternalError("failed to encode pending action", err)
	}
	if err := q.client.Client().RPush(ctx, pendingActionsKey, payload).Err(); err != nil {
		return errors.NewStorageUnavailableError("failed to enqueue pending action", err)
	}
	return nil
}

// Drain removes and returns every pending action in arrival order
func (q *ActionQueue) Drain(ctx context.Context) ([]domain.NotificationAction, error) {
	var actions []domain.NotificationAction
	for {
		payload, err := q.client.Client().LPop(ctx, pendingActionsKey).Bytes()
		if err != nil {
			if isRedisNil(err) {
				return actions, nil
			}
			return actions, errors.NewStorageUnavailableError("failed to drain pending actions", err)
		}

		var action domain.NotificationAction
		if err := json.Unmarshal(payload, &action); err != nil {
			// Skip malformed entries rather than poisoning the drain
			continue
		}
		actions = append(actions, action)
	}
}

// Len returns the number of queued actions
func (q *ActionQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.Client().LLen(ctx, pendingActionsKey).Result()
	if err != nil {
		return 0, errors.NewStorageUnavailableError("failed to read pending action count", err)
	}
	return n, nil
}
