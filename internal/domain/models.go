package domain

import (
	"time"
)

// Priority represents the urgency of a scheduled notification
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Rank returns the sort weight of a priority (higher fires first)
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Category classifies a notification relative to the task's due date
type Category string

const (
	CategoryReminder Category = "reminder"
	CategoryOverdue  Category = "overdue"
	CategoryDeadline Category = "deadline"
)

// RepeatInterval represents the recurrence pattern of a repeating task
type RepeatInterval string

const (
	RepeatDaily   RepeatInterval = "daily"
	RepeatWeekly  RepeatInterval = "weekly"
	RepeatMonthly RepeatInterval = "monthly"
)

// Valid reports whether the interval is one of the recognized patterns
func (r RepeatInterval) Valid() bool {
	switch r {
	case RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// ScheduledNotification represents a pending or delivered reminder record.
// IsTriggered transitions false->true exactly once; recurrence creates a new
// record instead of resetting it. OriginalScheduledTime anchors recurrence
// math for the whole chain so drift does not accumulate.
type ScheduledNotification struct {
	ID                    string         `json:"id" bson:"_id"`
	TaskID                string         `json:"task_id" bson:"task_id"`
	Title                 string         `json:"title" bson:"title"`
	Body                  string         `json:"body" bson:"body"`
	ScheduledTime         time.Time      `json:"scheduled_time" bson:"scheduled_time"`
	IsTriggered           bool           `json:"is_triggered" bson:"is_triggered"`
	CreatedAt             time.Time      `json:"created_at" bson:"created_at"`
	Priority              Priority       `json:"priority" bson:"priority"`
	Category              Category       `json:"category" bson:"category"`
	TaskDueDate           *time.Time     `json:"task_due_date,omitempty" bson:"task_due_date,omitempty"`
	SnoozeCount           int            `json:"snooze_count" bson:"snooze_count"`
	OriginalScheduledTime time.Time      `json:"original_scheduled_time" bson:"original_scheduled_time"`
	IsRecurring           bool           `json:"is_recurring" bson:"is_recurring"`
	RecurringPattern      RepeatInterval `json:"recurring_pattern,omitempty" bson:"recurring_pattern,omitempty"`
}

// PermissionState is the tri-state notification permission.
// Denied is sticky: once denied the service never re-prompts.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// TaskEventType represents the type of a task lifecycle event
type TaskEventType string

const (
	TaskEventReminderSet     TaskEventType = "task.reminder_set"
	TaskEventReminderCleared TaskEventType = "task.reminder_cleared"
	TaskEventDeleted         TaskEventType = "task.deleted"
	TaskEventCompleted       TaskEventType = "task.completed"
)

// TaskEvent is published by the external task manager when a task changes.
// The reminder subsystem reacts by scheduling or cascade-deleting records.
type TaskEvent struct {
	Type           TaskEventType  `json:"type"`
	TaskID         string         `json:"task_id"`
	Title          string         `json:"title,omitempty"`
	ReminderTime   *time.Time     `json:"reminder_time,omitempty"`
	DueDate        *time.Time     `json:"due_date,omitempty"`
	IsRepeating    bool           `json:"is_repeating,omitempty"`
	RepeatInterval RepeatInterval `json:"repeat_interval,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}
