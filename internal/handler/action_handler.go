package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/service"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
	"github.com/LuckysHorizon/SmartReminder/internal/worker"
)

// Snooze action button delays when the caller does not specify minutes
const defaultSnoozeMinutes = 10

// ActionHandler ingests notification action clicks and exposes the pending
// action replay queue
type ActionHandler struct {
	worker   *worker.Worker
	schedule *service.ScheduleService
	queue    worker.PendingQueue
	log      *logger.Logger
}

// NewActionHandler creates a new action handler
func NewActionHandler(w *worker.Worker, schedule *service.ScheduleService, queue worker.PendingQueue, log *logger.Logger) *ActionHandler {
	return &ActionHandler{
		worker:   w,
		schedule: schedule,
		queue:    queue,
		log:      log,
	}
}

// PostAction applies a notification action and relays it to other open page
// contexts (or queues it when none are open)
func (h *ActionHandler) PostAction(c *gin.Context) {
	var action domain.NotificationAction
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, errors.NewValidationRejectedError("Invalid request", err))
		return
	}

	ctx := c.Request.Context()
	switch action.Action {
	case domain.ActionSnooze:
		minutes := action.Minutes
		if minutes <= 0 {
			minutes = defaultSnoozeMinutes
		}
		if _, err := h.schedule.Snooze(ctx, action.TaskID, "", minutes); err != nil {
			h.log.Error("Failed to apply snooze action", "error", err, "task_id", action.TaskID)
			c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to snooze", err))
			return
		}
	case domain.ActionComplete:
		// Completing a task retires its pending reminders
		if _, err := h.schedule.CancelTaskNotifications(ctx, action.TaskID); err != nil {
			h.log.Error("Failed to apply complete action", "error", err, "task_id", action.TaskID)
			c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to complete", err))
			return
		}
	case domain.ActionView:
		// Nothing to apply server-side; the relay below focuses a page
	default:
		c.JSON(http.StatusBadRequest, errors.NewValidationRejectedError("Unknown action", nil))
		return
	}

	if err := h.worker.HandleAction(ctx, action); err != nil {
		h.log.Error("Failed to relay action", "error", err, "task_id", action.TaskID)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to relay action", err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Action accepted"})
}

// GetPendingActions drains and returns the queued actions. Pages call this on
// startup to replay anything that happened while they were closed.
func (h *ActionHandler) GetPendingActions(c *gin.Context) {
	actions, err := h.queue.Drain(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to drain pending actions", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to drain pending actions", err))
		return
	}
	if actions == nil {
		actions = []domain.NotificationAction{}
	}

	c.JSON(http.StatusOK, gin.H{"data": actions, "total": len(actions)})
}
