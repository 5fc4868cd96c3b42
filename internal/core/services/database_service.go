package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/config"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/pkg/security"

	"github.com/sirupsen/logrus"
)

// DatabaseInfo summarizes the durable store
type DatabaseInfo struct {
	Backend       string `json:"backend"`
	TotalBytes    int    `json:"totalBytes"`
	TotalSize     string `json:"totalSize"`
	Users         int    `json:"users"`
	Applications  int    `json:"applications"`
	Notifications int    `json:"notifications"`
	LastCleanup   string `json:"lastCleanup"`
	Initialized   bool   `json:"initialized"`
}

// CleanupResult reports what one cleanup run changed
type CleanupResult struct {
	ExpiredApplications  int       `json:"expiredApplications"`
	CleanedNotifications int       `json:"cleanedNotifications"`
	At                   time.Time `json:"at"`
}

// DatabaseService owns initialization, statistics and cleanup of the durable store
type DatabaseService struct {
	store         kv.Store
	backend       string
	users         repositories.UserRepository
	apps          repositories.ApplicationRepository
	notifications repositories.NotificationRepository
	settings      repositories.SettingsRepository
	notifier      *NotificationService
	hasher        Hasher
	cfg           *config.Config
	now           Clock
	log           logrus.FieldLogger
}

// NewDatabaseService creates a new database service
func NewDatabaseService(
	store kv.Store,
	backend string,
	users repositories.UserRepository,
	apps repositories.ApplicationRepository,
	notifications repositories.NotificationRepository,
	settings repositories.SettingsRepository,
	notifier *NotificationService,
	hasher Hasher,
	cfg *config.Config,
	now Clock,
	log logrus.FieldLogger,
) *DatabaseService {
	return &DatabaseService{
		store:         store,
		backend:       backend,
		users:         users,
		apps:          apps,
		notifications: notifications,
		settings:      settings,
		notifier:      notifier,
		hasher:        hasher,
		cfg:           cfg,
		now:           now,
		log:           log,
	}
}

// Init writes default settings, empty collections and the sample accounts
// for every key that does not exist yet
func (s *DatabaseService) Init(ctx context.Context) error {
	s.log.Info("🌱 Initializing storage...")

	seeded, err := s.users.EnsureSeeded(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize users: %w", err)
	}
	if seeded {
		if err := s.seedAccounts(ctx); err != nil {
			return err
		}
	}

	if _, err := s.apps.EnsureSeeded(ctx); err != nil {
		return fmt.Errorf("failed to initialize applications: %w", err)
	}
	if _, err := s.notifications.EnsureSeeded(ctx); err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	if _, err := s.settings.EnsureSeeded(ctx); err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}

	s.log.Info("✅ Storage initialized")
	return nil
}

func (s *DatabaseService) seedAccounts(ctx context.Context) error {
	now := s.now()
	for i, account := range s.cfg.DefaultAccounts() {
		digest, err := s.hasher.Hash(account.Password)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}

		lastLogin := now
		user := &models.User{
			ID:             int64(i + 1),
			Email:          account.Email,
			PasswordDigest: digest,
			Username:       account.Username,
			Tier:           account.Tier,
			CreatedAt:      now,
			LastLogin:      &lastLogin,
		}
		if err := s.users.Create(ctx, user); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("⚠️ Seed account skipped")
			continue
		}
		s.log.WithField("user_id", user.ID).Info("🌱 Seed account created")
	}
	return nil
}

// GetSettings returns the stored settings
func (s *DatabaseService) GetSettings(ctx context.Context) (*models.Settings, error) {
	return s.settings.Get(ctx)
}

// UpdateSettingsInput changes the fields that are set
type UpdateSettingsInput struct {
	SiteName               *string `json:"siteName"`
	Maintenance            *bool   `json:"maintenance"`
	InviteOnly             *bool   `json:"inviteOnly"`
	MaxApplicationsPerWeek *int    `json:"maxApplicationsPerWeek"`
	ApplicationExpiryDays  *int    `json:"applicationExpiryDays"`
}

// UpdateSettings applies input to the stored settings and writes them back
func (s *DatabaseService) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*models.Settings, error) {
	var reasons []string
	if input.SiteName != nil {
		name := strings.TrimSpace(*input.SiteName)
		if name == "" || utf8.RuneCountInString(name) > domain.SiteNameMaxLength {
			reasons = append(reasons, fmt.Sprintf("Site name must be 1 to %d characters long", domain.SiteNameMaxLength))
		}
	}
	if input.MaxApplicationsPerWeek != nil && *input.MaxApplicationsPerWeek < 0 {
		reasons = append(reasons, "Max applications per week cannot be negative")
	}
	if input.ApplicationExpiryDays != nil && *input.ApplicationExpiryDays < 1 {
		reasons = append(reasons, "Application expiry must be at least 1 day")
	}
	if err := domain.NewValidationError(reasons); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if input.SiteName != nil {
		settings.SiteName = security.SanitizeText(strings.TrimSpace(*input.SiteName))
	}
	if input.Maintenance != nil {
		settings.Maintenance = *input.Maintenance
	}
	if input.InviteOnly != nil {
		settings.InviteOnly = *input.InviteOnly
	}
	if input.MaxApplicationsPerWeek != nil {
		settings.MaxApplicationsPerWeek = *input.MaxApplicationsPerWeek
	}
	if input.ApplicationExpiryDays != nil {
		settings.ApplicationExpiryDays = *input.ApplicationExpiryDays
	}

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"maintenance":             settings.Maintenance,
		"application_expiry_days": settings.ApplicationExpiryDays,
	}).Info("⚙️ Settings updated")
	return settings, nil
}

// GetDatabaseInfo reports footprint and record counts
func (s *DatabaseService) GetDatabaseInfo(ctx context.Context) (*DatabaseInfo, error) {
	total, err := kv.Footprint(ctx, s.store)
	if err != nil {
		return nil, err
	}
	rawUsers, err := s.store.Get(ctx, repositories.KeyUsers)
	if err != nil {
		return nil, err
	}

	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := s.apps.Count(ctx)
	if err != nil {
		return nil, err
	}
	notifications, err := s.notifications.Count(ctx)
	if err != nil {
		return nil, err
	}

	lastCleanup := "Never"
	at, err := s.settings.LastCleanup(ctx)
	if err != nil {
		return nil, err
	}
	if at != nil {
		lastCleanup = at.Format(time.RFC3339)
	}

	return &DatabaseInfo{
		Backend:       s.backend,
		TotalBytes:    total,
		TotalSize:     fmt.Sprintf("%.2f KB", float64(total)/1024),
		Users:         users,
		Applications:  apps,
		Notifications: notifications,
		LastCleanup:   lastCleanup,
		Initialized:   rawUsers != nil,
	}, nil
}

// CleanupOldData expires stale open applications and prunes notifications.
// The expiry window comes from settings, falling back to configuration.
func (s *DatabaseService) CleanupOldData(ctx context.Context, now time.Time) (*CleanupResult, error) {
	expiryDays := s.cfg.Cleanup.ApplicationExpiryDays
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings.ApplicationExpiryDays > 0 {
		expiryDays = settings.ApplicationExpiryDays
	}

	cutoff := now.AddDate(0, 0, -expiryDays)
	expired, err := s.apps.ExpireStale(ctx, cutoff, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire applications: %w", err)
	}
	if len(expired) > 0 {
		_ = s.notifier.NotifyApplicationsExpired(ctx, expired)
	}

	retention := now.Add(-s.cfg.Cleanup.NotificationRetention)
	if s.cfg.Cleanup.NotificationRetention <= 0 {
		retention = time.Time{}
	}
	pruned, err := s.notifications.Prune(ctx, retention, s.cfg.Cleanup.NotificationMaxCount)
	if err != nil {
		return nil, fmt.Errorf("failed to prune notifications: %w", err)
	}

	if err := s.settings.SetLastCleanup(ctx, now); err != nil {
		return nil, fmt.Errorf("failed to record cleanup: %w", err)
	}

	result := &CleanupResult{
		ExpiredApplications:  len(expired),
		CleanedNotifications: pruned,
		At:                   now,
	}
	if result.ExpiredApplications > 0 || result.CleanedNotifications > 0 {
		s.log.WithFields(logrus.Fields{
			"expired_applications":  result.ExpiredApplications,
			"cleaned_notifications": result.CleanedNotifications,
		}).Info("🔄 Storage cleanup completed")
	}
	return result, nil
}
