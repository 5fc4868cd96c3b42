package handlers

import (
	"errors"
	"strconv"

	"invite-portal/internal/adapters/http/middleware"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/core/services"
	"invite-portal/internal/pkg/pagination"
	"invite-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func userError(c *fiber.Ctx, err error, fallback string) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return response.ValidationFailed(c, verr.Reasons)
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return response.Conflict(c, "Email already exists")
	case errors.Is(err, domain.ErrInvalidTier):
		return response.BadRequest(c, "Invalid tier")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// ListUsers handles listing all users (premium only)
// @Summary List all users
// @Description Get a paginated list of all users (premium only)
// @Tags Users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", pagination.Slice(users, pagination.GetParams(c)))
}

// GetUser handles getting a user by ID (premium only)
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to get user")
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user,
	})
}

// CreateUser handles creating a pending user (premium only)
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body services.CreateUserInput true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req services.CreateUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.CreateUser(c.Context(), &req)
	if err != nil {
		return userError(c, err, "Failed to create user")
	}

	return response.Created(c, "User created successfully", fiber.Map{
		"user": user,
	})
}

// UpdateUser handles updating a user (premium only)
// @Summary Update user
// @Description Update a user's email, username or tier (premium only)
// @Tags Users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body services.UpdateUserInput true "Update data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req services.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if session := middleware.Session(c); session != nil && session.ID == id && req.Tier != nil && *req.Tier != session.Tier {
		return response.BadRequest(c, "Cannot change your own tier")
	}

	user, err := h.userService.UpdateUser(c.Context(), id, &req)
	if err != nil {
		return userError(c, err, "Failed to update user")
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	return response.Success(c, "User updated successfully", fiber.Map{
		"user": user,
	})
}

// DeleteUser handles deleting a user (premium only)
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := parseUserID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if session := middleware.Session(c); session != nil && session.ID == id {
		return response.BadRequest(c, "Cannot delete your own account")
	}

	user, err := h.userService.DeleteUser(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}
	if user == nil {
		return domain.ErrUserNotFound
	}

	return response.Success(c, "User deleted successfully", fiber.Map{
		"user": user,
	})
}
