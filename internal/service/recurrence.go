package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// RecurrenceEngine reschedules recurring notifications after delivery
type RecurrenceEngine struct {
	store NotificationStore
	log   *logger.Logger
	now   func() time.Time
}

// NewRecurrenceEngine creates a new recurrence engine
func NewRecurrenceEngine(store NotificationStore, log *logger.Logger) *RecurrenceEngine {
	return &RecurrenceEngine{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// NextOccurrence computes the first occurrence strictly after the given time,
// stepping in calendar units from the chain's anchor. Anchoring on the
// original scheduled time keeps the chain drift-free no matter how late any
// individual delivery ran.
func NextOccurrence(pattern domain.RepeatInterval, anchor, after time.Time) (time.Time, error) {
	if !pattern.Valid() {
		return time.Time{}, errors.NewValidationRejectedError("unknown repeat interval", nil)
	}

	next := anchor
	for !next.After(after) {
		switch pattern {
		case domain.RepeatDaily:
			next = next.AddDate(0, 0, 1)
		case domain.RepeatWeekly:
			next = next.AddDate(0, 0, 7)
		case domain.RepeatMonthly:
			next = next.AddDate(0, 1, 0)
		}
	}
	return next, nil
}

// ScheduleNext creates the follow-up record for a just-delivered recurring
// notification. The new record carries the chain's original scheduled time,
// priority, category and due date forward unchanged.
func (e *RecurrenceEngine) ScheduleNext(ctx context.Context, delivered *domain.ScheduledNotification) (*domain.ScheduledNotification, error) {
	next, err := NextOccurrence(delivered.RecurringPattern, delivered.OriginalScheduledTime, e.now())
	if err != nil {
		return nil, err
	}

	n := &domain.ScheduledNotification{
		ID:                    uuid.NewString(),
		TaskID:                delivered.TaskID,
		Title:                 delivered.Title,
		Body:                  delivered.Body,
		ScheduledTime:         next,
		IsTriggered:           false,
		CreatedAt:             e.now(),
		Priority:              delivered.Priority,
		Category:              delivered.Category,
		TaskDueDate:           delivered.TaskDueDate,
		SnoozeCount:           0,
		OriginalScheduledTime: delivered.OriginalScheduledTime,
		IsRecurring:           true,
		RecurringPattern:      delivered.RecurringPattern,
	}

	if err := e.store.Create(ctx, n); err != nil {
		return nil, err
	}

	e.log.Info("Scheduled recurrence follow-up",
		"id", n.ID, "task_id", n.TaskID, "pattern", n.RecurringPattern, "next", next)
	return n, nil
}
