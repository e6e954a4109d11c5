package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LuckysHorizon/SmartReminder/internal/domain"
	"github.com/LuckysHorizon/SmartReminder/internal/repository"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/errors"
	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

// PermissionHandler exposes the tri-state notification permission
type PermissionHandler struct {
	store *repository.PermissionStore
	log   *logger.Logger
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(store *repository.PermissionStore, log *logger.Logger) *PermissionHandler {
	return &PermissionHandler{store: store, log: log}
}

// GetPermission returns the current permission state
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	state, err := h.store.Get(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to read permission", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to read permission", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

// UpdatePermission records a permission decision. Denied is sticky; the
// response carries the state that actually took effect.
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	var req struct {
		State domain.PermissionState `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.NewValidationRejectedError("Invalid request", err))
		return
	}

	switch req.State {
	case domain.PermissionDefault, domain.PermissionGranted, domain.PermissionDenied:
	default:
		c.JSON(http.StatusBadRequest, errors.NewValidationRejectedError("Unknown permission state", nil))
		return
	}

	effective, err := h.store.Set(c.Request.Context(), req.State)
	if err != nil {
		h.log.Error("Failed to update permission", "error", err)
		c.JSON(http.StatusInternalServerError, errors.NewInternalError("Failed to update permission", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": effective})
}
