package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/metrics"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// Priority escalates to high once a task has been snoozed more than this many times
const snoozeEscalationThreshold = 2

// ScheduleService is the scheduling entry point for task reminders
type ScheduleService struct {
	store NotificationStore
	log   *logger.Logger
	now   func() time.Time
}

// NewScheduleService creates a new schedule service
func NewScheduleService(store NotificationStore, log *logger.Logger) *ScheduleService {
	return &ScheduleService{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// DeriveCategory classifies a reminder by the gap between the task's due date
// and the reminder time: due already passed at reminder time means overdue,
// within an hour of it means deadline, anything else is a plain reminder.
func DeriveCategory(reminderTime time.Time, dueDate *time.Time) domain.Category {
	if dueDate == nil {
		return domain.CategoryReminder
	}
	gap := dueDate.Sub(reminderTime)
	if gap <= 0 {
		return domain.CategoryOverdue
	}
	if gap <= time.Hour {
		return domain.CategoryDeadline
	}
	return domain.CategoryReminder
}

// ScheduleTaskReminder creates a scheduled notification for a task. Reminder
// times that are not strictly in the future are rejected and nothing is
// persisted. Repeating tasks are not pre-scheduled as a chain; the recurrence
// engine creates the follow-up record after each delivery.
func (s *ScheduleService) ScheduleTaskReminder(ctx context.Context, req domain.ScheduleRequest) (*domain.ScheduledNotification, error) {
	now := s.now()
	if !req.ReminderTime.After(now) {
		s.log.Warn("Rejecting reminder scheduled in the past",
			"task_id", req.TaskID, "reminder_time", req.ReminderTime)
		return nil, errors.NewValidationRejectedError("reminder time must be in the future", nil)
	}

	category := req.Options.Category
	if category == "" {
		category = DeriveCategory(req.ReminderTime, req.DueDate)
	}

	priority := req.Options.Priority
	if priority == "" {
		priority = domain.PriorityNormal
		if category == domain.CategoryOverdue {
			priority = domain.PriorityHigh
		}
	}

	body := req.Options.Body
	if body == "" {
		body = fmt.Sprintf("Don't forget: %s", req.Title)
	}

	original := req.ReminderTime
	if req.Options.OriginalScheduledTime != nil {
		original = *req.Options.OriginalScheduledTime
	}

	isRecurring := req.IsRepeating || req.Options.IsRecurring
	pattern := req.RepeatInterval
	if pattern == "" {
		pattern = req.Options.RecurringPattern
	}
	if isRecurring && !pattern.Valid() {
		s.log.Warn("Unknown repeat interval, scheduling as one-shot",
			"task_id", req.TaskID, "interval", pattern)
		isRecurring = false
		pattern = ""
	}

	n := &domain.ScheduledNotification{
		ID:                    uuid.NewString(),
		TaskID:                req.TaskID,
		Title:                 req.Title,
		Body:                  body,
		ScheduledTime:         req.ReminderTime,
		IsTriggered:           false,
		CreatedAt:             now,
		Priority:              priority,
		Category:              category,
		TaskDueDate:           req.DueDate,
		SnoozeCount:           req.Options.SnoozeCount,
		OriginalScheduledTime: original,
		IsRecurring:           isRecurring,
		RecurringPattern:      pattern,
	}

	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}

	metrics.NotificationsScheduled.WithLabelValues(string(category), string(priority)).Inc()
	s.log.Info("Scheduled task reminder",
		"id", n.ID, "task_id", n.TaskID, "scheduled_time", n.ScheduledTime,
		"category", category, "priority", priority, "recurring", isRecurring)
	return n, nil
}

// Snooze delays a task's next notification by the given minutes. The new
// record's snooze count continues from the task's latest untriggered record,
// and priority escalates to high once the count passes the threshold.
func (s *ScheduleService) Snooze(ctx context.Context, taskID, title string, minutes int) (*domain.ScheduledNotification, error) {
	if minutes <= 0 {
		return nil, errors.NewValidationRejectedError("snooze minutes must be positive", nil)
	}

	existing, err := s.store.FindByTaskID(ctx, taskID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	count := 0
	for _, n := range existing {
		if !n.IsTriggered && n.SnoozeCount > count {
			count = n.SnoozeCount
		}
	}
	count++

	if title == "" {
		title = latestTitle(existing)
	}

	display := "Snoozed: " + title
	if count > 1 {
		display = fmt.Sprintf("Snoozed: %s (%dx)", title, count)
	}

	priority := domain.PriorityNormal
	if count > snoozeEscalationThreshold {
		priority = domain.PriorityHigh
	}

	n, err := s.ScheduleTaskReminder(ctx, domain.ScheduleRequest{
		TaskID:       taskID,
		Title:        display,
		ReminderTime: s.now().Add(time.Duration(minutes) * time.Minute),
		Options: domain.ScheduleOptions{
			Priority:    priority,
			SnoozeCount: count,
		},
	})
	if err != nil {
		return nil, err
	}

	metrics.SnoozeRequests.Inc()
	s.log.Info("Snoozed task reminder",
		"task_id", taskID, "minutes", minutes, "snooze_count", count, "priority", priority)
	return n, nil
}

// CancelTaskNotifications cascade-deletes every notification for a task.
// Missing records are not an error here.
func (s *ScheduleService) CancelTaskNotifications(ctx context.Context, taskID string) (int64, error) {
	deleted, err := s.store.DeleteByTaskID(ctx, taskID)
	if err != nil {
		if errors.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("Cancelled task notifications", "task_id", taskID, "deleted", deleted)
	}
	return deleted, nil
}

// latestTitle picks the most recently scheduled untriggered record's title,
// stripping any snooze prefix so titles do not stack up
func latestTitle(records []*domain.ScheduledNotification) string {
	title := "Task reminder"
	var best time.Time
	for _, n := range records {
		if n.IsTriggered || n.ScheduledTime.Before(best) {
			continue
		}
		best = n.ScheduledTime
		title = n.Title
	}
	if base, ok := strings.CutPrefix(title, "Snoozed: "); ok {
		if idx := strings.LastIndex(base, " ("); idx > 0 && strings.HasSuffix(base, "x)") {
			base = base[:idx]
		}
		title = base
	}
	return title
}
