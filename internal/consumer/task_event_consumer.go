package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/service"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/rabbitmq"
)

const (
	taskExchange   = "tasks"
	taskQueue      = "task_reminder_events"
	taskRoutingKey = "task.*"
	consumerTag    = "smart-reminder"
)

// TaskEventConsumer reacts to task lifecycle events from the external task
// manager: setting a reminder schedules a notification, deleting or
// completing a task cascade-deletes its notifications.
type TaskEventConsumer struct {
	client   *rabbitmq.RabbitMQClient
	schedule *service.ScheduleService
	log      *logger.Logger
}

// NewTaskEventConsumer creates a new task event consumer
func NewTaskEventConsumer(client *rabbitmq.RabbitMQClient, schedule *service.ScheduleService, log *logger.Logger) *TaskEventConsumer {
	return &TaskEventConsumer{
		client:   client,
		schedule: schedule,
		log:      log,
	}
}

// Start consumes task events until the channel closes
func (c *TaskEventConsumer) Start() error {
	c.log.Info("Starting task event consumer", "queue", taskQueue)

	messages, err := c.client.Subscribe(taskExchange, taskQueue, taskRoutingKey, consumerTag)
	if err != nil {
		return err
	}

	for msg := range messages {
		var event domain.TaskEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			c.log.Error("Failed to unmarshal task event", "error", err, "routing_key", msg.RoutingKey)
			msg.Nack(false, false) // Don't requeue invalid messages
			continue
		}

		ctx := context.Background()
		if err := c.process(ctx, &event); err != nil {
			if errors.IsValidationRejected(err) {
				// A stale reminder time is a logged no-op, not a retry
				c.log.Warn("Task event rejected", "type", event.Type, "task_id", event.TaskID, "error", err)
				msg.Ack(false)
				continue
			}
			c.log.Error("Failed to process task event", "error", err, "type", event.Type)
			msg.Nack(false, true) // Requeue for retry
			continue
		}

		msg.Ack(false)
	}

	return nil
}

func (c *TaskEventConsumer) process(ctx context.Context, event *domain.TaskEvent) error {
	switch event.Type {
	case domain.TaskEventReminderSet:
		if event.ReminderTime == nil {
			return fmt.Errorf("reminder_set event without reminder_time for task %s", event.TaskID)
		}
		// A changed reminder replaces the task's pending notifications
		if _, err := c.schedule.CancelTaskNotifications(ctx, event.TaskID); err != nil {
			return err
		}
		_, err := c.schedule.ScheduleTaskReminder(ctx, domain.ScheduleRequest{
			TaskID:         event.TaskID,
			Title:          event.Title,
			ReminderTime:   *event.ReminderTime,
			DueDate:        event.DueDate,
			IsRepeating:    event.IsRepeating,
			RepeatInterval: event.RepeatInterval,
		})
		return err

	case domain.TaskEventReminderCleared, domain.TaskEventDeleted, domain.TaskEventCompleted:
		_, err := c.schedule.CancelTaskNotifications(ctx, event.TaskID)
		return err

	default:
		c.log.Warn("Unknown task event type", "type", event.Type)
		return nil
	}
}
