package handlers

import (
	"errors"

	"invite-portal/internal/adapters/http/middleware"
	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/core/services"
	"invite-portal/internal/pkg/pagination"
	"invite-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ApplicationHandler handles invite application endpoints
type ApplicationHandler struct {
	applications services.ApplicationManager
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications services.ApplicationManager) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// UpdateStatusRequest represents update status request body
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Create handles the public application form
// @Summary Submit application
// @Description Validate and store an invite application
// @Tags Applications
// @Accept json
// @Produce json
// @Param body body models.ApplicationSubmission true "Application form"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /applications [post]
func (h *ApplicationHandler) Create(c *fiber.Ctx) error {
	var req models.ApplicationSubmission
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	req.ClientFingerprint = c.IP() + "|" + c.Get(fiber.HeaderUserAgent)

	app, err := h.applications.CreateApplication(c.Context(), &req)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return response.ValidationFailed(c, verr.Reasons)
		}
		return response.InternalServerError(c, "Failed to submit application")
	}

	return response.Created(c, "Application submitted successfully", fiber.Map{
		"id":     app.ID,
		"status": app.Status,
	})
}

// My returns the applications of the logged-in user
// @Summary My applications
// @Description List the current user's applications, newest first
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /applications/my [get]
func (h *ApplicationHandler) My(c *fiber.Ctx) error {
	session := middleware.Session(c)
	if session == nil {
		return domain.ErrUnauthorized
	}

	apps, err := h.applications.GetUserApplications(c.Context(), session.Email)
	if err != nil {
		return response.InternalServerError(c, "Failed to get applications")
	}

	return response.Success(c, "Applications retrieved successfully", fiber.Map{
		"applications": apps,
	})
}

// List returns every application with masked emails
// @Summary List applications
// @Description List all applications with masked emails (premium only)
// @Tags Applications
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications [get]
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	apps, err := h.applications.GetAllApplications(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list applications")
	}

	return response.Success(c, "Applications retrieved successfully", pagination.Slice(apps, pagination.GetParams(c)))
}

// Get returns one application
// @Summary Get application
// @Description Get an application by ID (premium only)
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	app, err := h.applications.GetApplication(c.Context(), c.Params("id"))
	if err != nil {
		return response.InternalServerError(c, "Failed to get application")
	}
	if app == nil {
		return domain.ErrApplicationNotFound
	}

	return response.Success(c, "Application retrieved successfully", fiber.Map{
		"application": app,
	})
}

// UpdateStatus changes the status of an application
// @Summary Update application status
// @Description Set an application's status (premium only)
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param body body UpdateStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	app, err := h.applications.UpdateApplicationStatus(c.Context(), c.Params("id"), domain.ApplicationStatus(req.Status))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			return response.BadRequest(c, "Invalid status")
		}
		return response.InternalServerError(c, "Failed to update application")
	}
	if app == nil {
		return domain.ErrApplicationNotFound
	}

	return response.Success(c, "Application updated successfully", fiber.Map{
		"application": app,
	})
}

// Stats returns per-status totals
// @Summary Application statistics
// @Description Count applications per status (premium only)
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Response
// @Router /applications/stats [get]
func (h *ApplicationHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.applications.GetApplicationStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get statistics")
	}

	return response.Success(c, "Statistics retrieved successfully", stats)
}
