package handlers

import (
	"errors"
	"time"

	"invite-portal/internal/adapters/http/middleware"
	"invite-portal/internal/config"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/core/services"
	"invite-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints of the request's tab
type AuthHandler struct {
	tabs *services.TabManager
	cfg  *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tabs *services.TabManager, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		tabs: tabs,
		cfg:  cfg,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user login
// @Summary Login
// @Description Authenticate the current tab with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	auth := middleware.Auth(c)
	if auth == nil {
		return response.InternalServerError(c, "Session unavailable")
	}

	ok, err := auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedCredentials) {
			return response.BadRequest(c, "Invalid email or password")
		}
		return response.InternalServerError(c, "Failed to login")
	}
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(response.Response{
			Success: false,
			Error:   "Invalid email or password",
			Data:    fiber.Map{"success": false},
		})
	}

	session, err := auth.GetCurrentUser(c.Context())
	if err != nil || session == nil {
		return response.InternalServerError(c, "Failed to login")
	}
	token, err := auth.CSRFToken(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to login")
	}

	return response.Success(c, "Login successful", fiber.Map{
		"success":   true,
		"user":      session,
		"csrfToken": token,
	})
}

// Logout handles user logout
// @Summary Logout
// @Description Clear the current tab's session. Idempotent.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if auth := middleware.Auth(c); auth != nil {
		if err := auth.Logout(c.Context()); err != nil {
			return response.InternalServerError(c, "Failed to logout")
		}
	}

	if c.Query("close") == "true" {
		if err := h.tabs.Close(c.Context(), middleware.TabID(c)); err != nil {
			return response.InternalServerError(c, "Failed to close session")
		}
		h.clearTabCookie(c)
	}

	return response.Success(c, "Logged out successfully", fiber.Map{
		"redirect": h.cfg.Session.LoginPath,
	})
}

// Me returns the current session
// @Summary Get current user
// @Description Get the session of the current tab
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session := middleware.Session(c)
	if session == nil {
		return domain.ErrUnauthorized
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": session,
	})
}

// Display returns the greeting record of the last login, if any
// @Summary Get display record
// @Description Username and tier the landing page greets with. Null when nobody is logged in.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/display [get]
func (h *AuthHandler) Display(c *fiber.Ctx) error {
	auth := middleware.Auth(c)
	if auth == nil {
		return response.InternalServerError(c, "Session unavailable")
	}

	display, err := auth.GetDisplay(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get display record")
	}
	return response.Success(c, "Display record retrieved successfully", fiber.Map{
		"display": display,
	})
}

// CSRF returns the CSRF token of the current session
// @Summary Get CSRF token
// @Description Token to send as X-CSRF-Token on mutating requests
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/csrf [get]
func (h *AuthHandler) CSRF(c *fiber.Ctx) error {
	token, err := middleware.Auth(c).CSRFToken(c.Context())
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.ErrUnauthorized
		}
		return response.InternalServerError(c, "Failed to get CSRF token")
	}

	return response.Success(c, "CSRF token retrieved successfully", fiber.Map{
		"csrfToken": token,
	})
}

// Activity records user interaction and re-arms the inactivity timer
// @Summary Report activity
// @Description Keep the current tab's session alive
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/activity [post]
func (h *AuthHandler) Activity(c *fiber.Ctx) error {
	// RequireAuth already touched the session
	return response.Success(c, "Activity recorded", nil)
}

func (h *AuthHandler) clearTabCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TabCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}
