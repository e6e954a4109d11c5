package domain

import "time"

// ScheduleOptions enumerates every recognized override for a schedule request.
// Zero values mean "derive the default".
type ScheduleOptions struct {
	Priority              Priority       `json:"priority,omitempty"`
	Category              Category       `json:"category,omitempty"`
	Body                  string         `json:"body,omitempty"`
	SnoozeCount           int            `json:"snooze_count,omitempty"`
	OriginalScheduledTime *time.Time     `json:"original_scheduled_time,omitempty"`
	IsRecurring           bool           `json:"is_recurring,omitempty"`
	RecurringPattern      RepeatInterval `json:"recurring_pattern,omitempty"`
}

// ScheduleRequest asks the scheduling entry point to create a reminder
type ScheduleRequest struct {
	TaskID         string          `json:"task_id" binding:"required"`
	Title          string          `json:"title" binding:"required"`
	ReminderTime   time.Time       `json:"reminder_time" binding:"required"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	IsRepeating    bool            `json:"is_repeating,omitempty"`
	RepeatInterval RepeatInterval  `json:"repeat_interval,omitempty"`
	Options        ScheduleOptions `json:"options,omitempty"`
}

// SnoozeRequest delays a task's next notification by the given minutes
type SnoozeRequest struct {
	TaskID  string `json:"task_id" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Minutes int    `json:"minutes" binding:"required,min=1"`
}

// PresentRequest is the input to the presentation layer
type PresentRequest struct {
	Title           string
	Body            string
	NotificationIDs []string
	TaskIDs         []string
	Priority        Priority
	Category        Category
	TaskDueDate     *time.Time
	SnoozeCount     int
	IsGrouped       bool
	GroupCount      int
}
