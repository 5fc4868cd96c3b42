package repositories

import (
	"context"
	"time"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"
)

// Lookups return (nil, nil) when the record does not exist.

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id int64, fn func(user *models.User) error) (*models.User, error)
	Delete(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	EnsureSeeded(ctx context.Context, users []*models.User) (bool, error)
}

// ApplicationRepository defines application repository interface
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id string) (*models.Application, error)
	ListByEmail(ctx context.Context, email string) ([]*models.Application, error)
	List(ctx context.Context) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, at time.Time) (*models.Application, error)
	ExpireStale(ctx context.Context, cutoff, at time.Time) ([]*models.Application, error)
	Count(ctx context.Context) (int, error)
	EnsureSeeded(ctx context.Context) (bool, error)
}

// NotificationRepository defines notification repository interface
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context) ([]*models.Notification, error)
	Count(ctx context.Context) (int, error)
	Prune(ctx context.Context, olderThan time.Time, keep int) (int, error)
	EnsureSeeded(ctx context.Context) (bool, error)
}

// SettingsRepository holds the settings record and the last cleanup marker
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
	EnsureSeeded(ctx context.Context) (bool, error)
	LastCleanup(ctx context.Context) (*time.Time, error)
	SetLastCleanup(ctx context.Context, at time.Time) error
}

// SessionRepository reads and writes one tab's session area plus the durable
// display record
type SessionRepository interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context) error
	ClearArea(ctx context.Context) error
	GetCSRFToken(ctx context.Context) (string, error)
	SaveCSRFToken(ctx context.Context, token string) error
	GetDisplay(ctx context.Context) (*models.UserDisplay, error)
	SaveDisplay(ctx context.Context, display *models.UserDisplay) error
	ClearDisplay(ctx context.Context) error
}
