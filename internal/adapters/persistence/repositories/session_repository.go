package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"
)

// sessionRepository implements SessionRepository interface.
// tab is the ephemeral area of one tab; durable holds the display record.
type sessionRepository struct {
	tab     kv.Store
	durable kv.Store
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(tab, durable kv.Store) SessionRepository {
	return &sessionRepository{tab: tab, durable: durable}
}

// GetSession returns a *domain.StorageCorruptionError for an unreadable record
func (r *sessionRepository) GetSession(ctx context.Context) (*models.Session, error) {
	raw, err := r.tab.Get(ctx, KeySession)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, &domain.StorageCorruptionError{Key: KeySession, Err: err}
	}
	return &session, nil
}

func (r *sessionRepository) SaveSession(ctx context.Context, session *models.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return r.tab.Set(ctx, KeySession, raw)
}

// ClearSession removes the session and every session-scoped token
func (r *sessionRepository) ClearSession(ctx context.Context) error {
	if err := r.tab.Delete(ctx, KeySession); err != nil {
		return err
	}
	return r.tab.Delete(ctx, KeyCSRFToken)
}

// ClearArea empties the whole session area of the tab
func (r *sessionRepository) ClearArea(ctx context.Context) error {
	return r.tab.Clear(ctx)
}

func (r *sessionRepository) GetCSRFToken(ctx context.Context) (string, error) {
	raw, err := r.tab.Get(ctx, KeyCSRFToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (r *sessionRepository) SaveCSRFToken(ctx context.Context, token string) error {
	return r.tab.Set(ctx, KeyCSRFToken, []byte(token))
}

func (r *sessionRepository) GetDisplay(ctx context.Context) (*models.UserDisplay, error) {
	raw, err := r.durable.Get(ctx, KeyUserDisplay)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var display models.UserDisplay
	if err := json.Unmarshal(raw, &display); err != nil {
		return nil, &domain.StorageCorruptionError{Key: KeyUserDisplay, Err: err}
	}
	return &display, nil
}

func (r *sessionRepository) SaveDisplay(ctx context.Context, display *models.UserDisplay) error {
	raw, err := json.Marshal(display)
	if err != nil {
		return fmt.Errorf("failed to encode display record: %w", err)
	}
	return r.durable.Set(ctx, KeyUserDisplay, raw)
}

func (r *sessionRepository) ClearDisplay(ctx context.Context) error {
	return r.durable.Delete(ctx, KeyUserDisplay)
}
