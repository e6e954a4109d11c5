package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/service"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// ReminderHandler handles scheduled reminder requests
type ReminderHandler struct {
	schedule *service.ScheduleService
	store    service.NotificationStore
	log      *logger.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(schedule *service.ScheduleService, store service.NotificationStore, log *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		schedule: schedule,
		store:    store,
		log:      log,
	}
}

// CreateReminder schedules a task reminder
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	var req domain.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.NewValidationRejectedError("Invalid request", err))
		return
	}

	n, err := h.schedule.ScheduleTaskReminder(c.Request.Context(), req)
	if err != nil {
		if errors.IsValidationRejected(err) {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		h.log.Error("Failed to schedule reminder", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to schedule reminder", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": n})
}

// GetReminders lists reminders, optionally filtered by task id
func (h *ReminderHandler) GetReminders(c *gin.Context) {
	var (
		reminders []*domain.ScheduledNotification
		err       error
	)
	if taskID := c.Query("task_id"); taskID != "" {
		reminders, err = h.store.FindByTaskID(c.Request.Context(), taskID)
	} else {
		reminders, err = h.store.FindAll(c.Request.Context())
	}
	if err != nil {
		h.log.Error("Failed to list reminders", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to list reminders", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reminders, "total": len(reminders)})
}

// GetReminder retrieves a single reminder by id
func (h *ReminderHandler) GetReminder(c *gin.Context) {
	n, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, err)
			return
		}
		h.log.Error("Failed to get reminder", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to get reminder", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": n})
}

// DeleteReminder removes a single reminder by id
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.IsNotFound(err) {
			c.JSON(http.StatusNotFound, err)
			return
		}
		h.log.Error("Failed to delete reminder", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to delete reminder", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
}

// DeleteTaskReminders cascade-deletes every reminder owned by a task
func (h *ReminderHandler) DeleteTaskReminders(c *gin.Context) {
	deleted, err := h.schedule.CancelTaskNotifications(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		h.log.Error("Failed to delete task reminders", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to delete task reminders", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// SnoozeReminder delays a task's next notification
func (h *ReminderHandler) SnoozeReminder(c *gin.Context) {
	var req domain.SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.NewValidationRejectedError("Invalid request", err))
		return
	}

	n, err := h.schedule.Snooze(c.Request.Context(), req.TaskID, req.Title, req.Minutes)
	if err != nil {
		if errors.IsValidationRejected(err) {
			c.JSON(http.StatusBadRequest, err)
			return
		}
		h.log.Error("Failed to snooze reminder", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to snooze reminder", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": n})
}
