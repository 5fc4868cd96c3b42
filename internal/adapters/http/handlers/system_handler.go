package handlers

import (
	"errors"
	"time"

	"invite-portal/internal/core/domain"
	"invite-portal/internal/core/services"
	"invite-portal/internal/pkg/pagination"
	"invite-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SystemHandler exposes storage statistics, settings and notifications
type SystemHandler struct {
	database      *services.DatabaseService
	notifications *services.NotificationService
	now           services.Clock
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(database *services.DatabaseService, notifications *services.NotificationService, now services.Clock) *SystemHandler {
	if now == nil {
		now = time.Now
	}
	return &SystemHandler{
		database:      database,
		notifications: notifications,
		now:           now,
	}
}

// Info returns storage footprint and record counts
// @Summary Storage info
// @Tags System
// @Produce json
// @Success 200 {object} response.Response
// @Router /system/info [get]
func (h *SystemHandler) Info(c *fiber.Ctx) error {
	info, err := h.database.GetDatabaseInfo(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get storage info")
	}
	return response.Success(c, "Storage info retrieved successfully", info)
}

// Settings returns the site settings
// @Summary Site settings
// @Tags System
// @Produce json
// @Success 200 {object} response.Response
// @Router /settings [get]
func (h *SystemHandler) Settings(c *fiber.Ctx) error {
	settings, err := h.database.GetSettings(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get settings")
	}
	return response.Success(c, "Settings retrieved successfully", settings)
}

// UpdateSettings changes site settings (premium only)
// @Summary Update site settings
// @Tags System
// @Accept json
// @Produce json
// @Param body body services.UpdateSettingsInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /settings [put]
func (h *SystemHandler) UpdateSettings(c *fiber.Ctx) error {
	var req services.UpdateSettingsInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	settings, err := h.database.UpdateSettings(c.Context(), &req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return response.ValidationFailed(c, verr.Reasons)
		}
		return response.InternalServerError(c, "Failed to update settings")
	}
	return response.Success(c, "Settings updated successfully", settings)
}

// Notifications lists notifications, newest last (premium only)
// @Summary List notifications
// @Tags System
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /notifications [get]
func (h *SystemHandler) Notifications(c *fiber.Ctx) error {
	notes, err := h.notifications.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list notifications")
	}
	return response.Success(c, "Notifications retrieved successfully", pagination.Slice(notes, pagination.GetParams(c)))
}

// Cleanup runs a storage cleanup immediately (premium only)
// @Summary Run cleanup
// @Tags System
// @Produce json
// @Success 200 {object} response.Response
// @Router /system/cleanup [post]
func (h *SystemHandler) Cleanup(c *fiber.Ctx) error {
	result, err := h.database.CleanupOldData(c.Context(), h.now())
	if err != nil {
		return response.InternalServerError(c, "Failed to clean up storage")
	}
	return response.Success(c, "Cleanup completed", result)
}
