package middleware

import (
	"strings"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/config"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/core/services"
	"invite-portal/internal/pkg/jwt"
	"invite-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	// TabCookie carries the signed tab token
	TabCookie = "tab_token"
	// TabHeader lets non-browser clients pass the tab token explicitly
	TabHeader = "X-Tab-Token"
	// CSRFHeader carries the CSRF token on mutating requests
	CSRFHeader = "X-CSRF-Token"

	localsTabID   = "tabID"
	localsAuth    = "auth"
	localsSession = "session"
)

// TabSession resolves the browser tab of the request, issuing a new signed
// tab token when none or an invalid one was presented
func TabSession(tabs *services.TabManager, cfg *config.Config, log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(TabCookie)
		if token == "" {
			token = strings.TrimSpace(c.Get(TabHeader))
		}

		var tabID string
		if token != "" {
			claims, err := jwt.ValidateTabToken(token, cfg.JWT.Secret)
			if err == nil {
				tabID = claims.TabID
			} else {
				log.WithError(err).Debug("🔑 Rejected tab token")
			}
		}

		if tabID == "" {
			tabID = tabs.NewTabID()
			signed, err := jwt.GenerateTabToken(tabID, cfg.JWT.Secret, cfg.JWT.TabTTL)
			if err != nil {
				return response.InternalServerError(c, "Failed to open session")
			}
			c.Cookie(&fiber.Cookie{
				Name:     TabCookie,
				Value:    signed,
				Path:     "/",
				Secure:   cfg.Cookie.Secure,
				HTTPOnly: true,
				SameSite: cfg.Cookie.SameSite,
				Domain:   cfg.Cookie.Domain,
			})
			c.Set(TabHeader, signed)
		}

		c.Locals(localsTabID, tabID)
		c.Locals(localsAuth, tabs.Get(tabID))
		return c.Next()
	}
}

// RequireAuth rejects requests from tabs without a valid session. The JSON
// body names where the tab should redirect; a ?redirect= target is honoured
// only when same-origin.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := Auth(c)
		if auth == nil {
			return response.Unauthorized(c, "Authentication required")
		}

		session, redirect, err := auth.RequireAuth(c.Context(), c.Query("redirect"))
		if err != nil {
			return response.InternalServerError(c, "Failed to read session")
		}
		if session == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(response.Response{
				Success: false,
				Error:   "Authentication required",
				Data:    fiber.Map{"redirect": redirect},
			})
		}

		auth.Touch()
		c.Locals(localsSession, session)
		return c.Next()
	}
}

// RequireTier creates tier-based authorization middleware
func RequireTier(allowed ...domain.Tier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := Session(c)
		if session == nil {
			return domain.ErrUnauthorized
		}

		for _, tier := range allowed {
			if session.Tier == tier {
				return c.Next()
			}
		}

		return domain.ErrForbidden
	}
}

// PremiumOnly allows only premium members
func PremiumOnly() fiber.Handler {
	return RequireTier(domain.TierPremium)
}

// CSRFProtect requires a valid X-CSRF-Token header on mutating requests of
// an authenticated tab
func CSRFProtect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		auth := Auth(c)
		if auth == nil || !auth.ValidateCSRFToken(c.Context(), c.Get(CSRFHeader)) {
			return domain.ErrInvalidCSRFToken
		}
		return c.Next()
	}
}

// Auth returns the authenticator of the request's tab
func Auth(c *fiber.Ctx) services.Authenticator {
	auth, ok := c.Locals(localsAuth).(*services.AuthService)
	if !ok {
		return nil
	}
	return auth
}

// Session returns the session resolved by RequireAuth
func Session(c *fiber.Ctx) *models.Session {
	session, _ := c.Locals(localsSession).(*models.Session)
	return session
}

// TabID returns the tab id resolved by TabSession
func TabID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsTabID).(string)
	return id
}
