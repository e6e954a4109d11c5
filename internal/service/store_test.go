package service

import (
	"context"
	"sync"
	"time"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
)

// memStore is an in-memory NotificationStore for tests. It preserves
// insertion order and mirrors the repository's conditional mark-triggered
// semantics.
type memStore struct {
	mu      sync.Mutex
	records []*domain.ScheduledNotification
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) Create(_ context.Context, n *domain.ScheduledNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.records = append(s.records, &copied)
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*domain.ScheduledNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.records {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, errors.NewNotFoundError("Notification not found", nil)
}

func (s *memStore) FindAll(_ context.Context) ([]*domain.ScheduledNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.ScheduledNotification, 0, len(s.records))
	for _, n := range s.records {
		copied := *n
		out = append(out, &copied)
	}
	return out, nil
}

func (s *memStore) FindByTaskID(_ context.Context, taskID string) ([]*domain.ScheduledNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ScheduledNotification
	for _, n := range s.records {
		if n.TaskID == taskID {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memStore) FindDueUntriggered(_ context.Context, now time.Time) ([]*domain.ScheduledNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ScheduledNotification
	for _, n := range s.records {
		if !n.IsTriggered && !n.ScheduledTime.After(now) {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memStore) MarkTriggered(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.records {
		if n.ID == id {
			if n.IsTriggered {
				return false, nil
			}
			n.IsTriggered = true
			return true, nil
		}
	}
	return false, errors.NewNotFoundError("Notification not found", nil)
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.records {
		if n.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFoundError("Notification not found", nil)
}

func (s *memStore) DeleteByTaskID(_ context.Context, taskID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*domain.ScheduledNotification
	var deleted int64
	for _, n := range s.records {
		if n.TaskID == taskID {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	s.records = kept
	return deleted, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
