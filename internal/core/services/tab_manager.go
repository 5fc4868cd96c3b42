package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthFactory builds the auth service of a new tab
type AuthFactory func(tabID string) *AuthService

// TabManager owns one AuthService, and so one ephemeral session area, per
// browser tab
type TabManager struct {
	factory AuthFactory
	idleTTL time.Duration
	now     Clock
	log     logrus.FieldLogger

	mu   sync.RWMutex
	tabs map[string]*AuthService
}

// NewTabManager creates a new tab manager
func NewTabManager(factory AuthFactory, idleTTL time.Duration, now Clock, log logrus.FieldLogger) *TabManager {
	return &TabManager{
		factory: factory,
		idleTTL: idleTTL,
		now:     now,
		log:     log,
		tabs:    make(map[string]*AuthService),
	}
}

// NewTabID returns a fresh random tab id
func (m *TabManager) NewTabID() string {
	return uuid.NewString()
}

// Get returns the tab's auth service, creating it on first use
func (m *TabManager) Get(tabID string) *AuthService {
	m.mu.RLock()
	auth, ok := m.tabs[tabID]
	m.mu.RUnlock()
	if ok {
		return auth
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if auth, ok := m.tabs[tabID]; ok {
		return auth
	}
	auth = m.factory(tabID)
	tabLog := m.log.WithField("tab_id", tabID)
	auth.OnLogout(func(e LogoutEvent) {
		tabLog.WithFields(logrus.Fields{
			"reason":   e.Reason,
			"redirect": e.Redirect,
		}).Info("↩️ Tab logged out")
	})
	m.tabs[tabID] = auth
	return auth
}

// Lookup returns the tab's auth service without creating one
func (m *TabManager) Lookup(tabID string) (*AuthService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	auth, ok := m.tabs[tabID]
	return auth, ok
}

// Close discards the tab's session area and forgets the tab
func (m *TabManager) Close(ctx context.Context, tabID string) error {
	m.mu.Lock()
	auth, ok := m.tabs[tabID]
	delete(m.tabs, tabID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return auth.Discard(ctx)
}

// Count returns the number of open tabs
func (m *TabManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs)
}

func (m *TabManager) snapshot() map[string]*AuthService {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tabs := make(map[string]*AuthService, len(m.tabs))
	for id, auth := range m.tabs {
		tabs[id] = auth
	}
	return tabs
}

// CheckExpiry runs the session expiry check of every tab and returns how many
// tabs were logged out
func (m *TabManager) CheckExpiry(ctx context.Context) int {
	loggedOut := 0
	for id, auth := range m.snapshot() {
		ended, err := auth.CheckExpiry(ctx)
		if err != nil {
			m.log.WithError(err).WithField("tab_id", id).Error("❌ Session expiry check failed")
			continue
		}
		if ended {
			loggedOut++
		}
	}
	return loggedOut
}

// SweepIdle closes tabs without activity for longer than the idle TTL
func (m *TabManager) SweepIdle(ctx context.Context) int {
	if m.idleTTL <= 0 {
		return 0
	}

	cutoff := m.now().Add(-m.idleTTL)
	closed := 0
	for id, auth := range m.snapshot() {
		if auth.LastActivity().After(cutoff) {
			continue
		}
		if err := m.Close(ctx, id); err != nil {
			m.log.WithError(err).WithField("tab_id", id).Error("❌ Failed to close idle tab")
			continue
		}
		closed++
	}
	return closed
}
