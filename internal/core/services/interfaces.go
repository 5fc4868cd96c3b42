package services

import (
	"context"
	"time"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"
)

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// Hasher digests new passwords
type Hasher interface {
	Hash(password string) (string, error)
}

// Verifier checks a password against a stored digest
type Verifier interface {
	Verify(password, digest string) bool
}

// ApplicationManager is what the HTTP layer needs from the application service
type ApplicationManager interface {
	CreateApplication(ctx context.Context, input *models.ApplicationSubmission) (*models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, status domain.ApplicationStatus) (*models.Application, error)
	GetUserApplications(ctx context.Context, email string) ([]*models.Application, error)
	GetAllApplications(ctx context.Context) ([]*models.Application, error)
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	GetApplicationStats(ctx context.Context) (*models.ApplicationStats, error)
}

// Authenticator is one tab's authentication state machine
type Authenticator interface {
	Login(ctx context.Context, email, password string) (bool, error)
	GetCurrentUser(ctx context.Context) (*models.Session, error)
	IsLoggedIn(ctx context.Context) bool
	Logout(ctx context.Context) error
	RequireAuth(ctx context.Context, redirect string) (*models.Session, string, error)
	Touch()
	CheckExpiry(ctx context.Context) (bool, error)
	CSRFToken(ctx context.Context) (string, error)
	ValidateCSRFToken(ctx context.Context, token string) bool
	GetDisplay(ctx context.Context) (*models.UserDisplay, error)
}
