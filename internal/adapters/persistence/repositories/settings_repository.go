package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// settingsRepository implements SettingsRepository interface
type settingsRepository struct {
	store kv.Store
	log   logrus.FieldLogger
	mu    sync.Mutex
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(store kv.Store, log logrus.FieldLogger) SettingsRepository {
	return &settingsRepository{store: store, log: log}
}

// Get returns the stored settings, or the defaults when absent. A corrupted
// record is replaced by the defaults.
func (r *settingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defaults := models.DefaultSettings()

	raw, err := r.store.Get(ctx, KeySettings)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &defaults, nil
	}

	settings := defaults
	if err := json.Unmarshal(raw, &settings); err != nil {
		corrupt := &domain.StorageCorruptionError{Key: KeySettings, Err: err}
		r.log.WithError(corrupt).WithField("key", KeySettings).Warn("resetting corrupted settings")
		if err := r.write(ctx, &defaults); err != nil {
			return nil, err
		}
		return &defaults, nil
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.write(ctx, settings)
}

// EnsureSeeded writes the default settings on first start
func (r *settingsRepository) EnsureSeeded(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.store.Get(ctx, KeySettings)
	if err != nil {
		return false, err
	}
	if raw != nil {
		return false, nil
	}
	defaults := models.DefaultSettings()
	return true, r.write(ctx, &defaults)
}

// LastCleanup returns nil when cleanup never ran or the marker is unreadable
func (r *settingsRepository) LastCleanup(ctx context.Context) (*time.Time, error) {
	raw, err := r.store.Get(ctx, KeyLastCleanup)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	at, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		r.log.WithError(&domain.StorageCorruptionError{Key: KeyLastCleanup, Err: err}).
			WithField("key", KeyLastCleanup).Warn("ignoring unreadable cleanup marker")
		return nil, nil
	}
	return &at, nil
}

func (r *settingsRepository) SetLastCleanup(ctx context.Context, at time.Time) error {
	return r.store.Set(ctx, KeyLastCleanup, []byte(at.UTC().Format(time.RFC3339Nano)))
}

func (r *settingsRepository) write(ctx context.Context, settings *models.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return r.store.Set(ctx, KeySettings, raw)
}
