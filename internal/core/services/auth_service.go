package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/config"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/pkg/security"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logout reasons
const (
	LogoutExplicit   = "logout"
	LogoutExpired    = "expired"
	LogoutInactivity = "inactivity"
	LogoutUnreadable = "unreadable"
)

// LogoutEvent describes an automatic logout and where the tab should go next
type LogoutEvent struct {
	Reason   string
	Redirect string
}

// AuthService is the authentication state machine of one browser tab:
// LoggedOut -> LoggedIn -> (expiry | logout | inactivity) -> LoggedOut.
type AuthService struct {
	userRepo    repositories.UserRepository
	sessionRepo repositories.SessionRepository
	verifier    Verifier
	cfg         *config.Config
	now         Clock
	log         logrus.FieldLogger

	// op serializes Login, Logout and the inactivity logout of this tab
	op sync.Mutex

	mu           sync.Mutex
	idle         *time.Timer
	idleGen      uint64
	lastActivity time.Time
	onLogout     func(LogoutEvent)
}

// NewAuthService creates the auth service of one tab
func NewAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	verifier Verifier,
	cfg *config.Config,
	now Clock,
	log logrus.FieldLogger,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		verifier:     verifier,
		cfg:          cfg,
		now:          now,
		log:          log,
		lastActivity: now(),
	}
}

// OnLogout registers the listener for automatic logouts
func (s *AuthService) OnLogout(fn func(LogoutEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = fn
}

// Login returns false for an unknown user or a wrong password; the two cases
// are indistinguishable. Malformed input fails with ErrMalformedCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (bool, error) {
	s.op.Lock()
	defer s.op.Unlock()

	email = strings.TrimSpace(email)
	if !security.IsValidEmail(email) || password == "" {
		return false, domain.ErrMalformedCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, security.SanitizeText(email))
	if err != nil {
		return false, err
	}
	if user == nil || !s.verifier.Verify(password, user.PasswordDigest) {
		s.log.WithField("email", security.MaskEmail(email)).Warn("🔒 Login rejected")
		return false, nil
	}

	now := s.now()
	session := &models.Session{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Tier:      user.Tier,
		SessionID: uuid.NewString(),
		LoginTime: now,
		Expiry:    now.Add(s.cfg.Session.Lifetime),
	}
	if err := s.sessionRepo.SaveSession(ctx, session); err != nil {
		return false, err
	}
	if err := s.sessionRepo.SaveDisplay(ctx, &models.UserDisplay{Username: user.Username, Tier: user.Tier}); err != nil {
		return false, err
	}

	token, err := security.GenerateCSRFToken()
	if err != nil {
		return false, err
	}
	if err := s.sessionRepo.SaveCSRFToken(ctx, token); err != nil {
		return false, err
	}

	if _, err := s.userRepo.Update(ctx, user.ID, func(u *models.User) error {
		u.LastLogin = &now
		return nil
	}); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("⚠️ Failed to record last login")
	}

	s.armWatchdog()

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   security.MaskEmail(user.Email),
		"tier":    user.Tier,
	}).Info("🔓 Login succeeded")
	return true, nil
}

// GetCurrentUser returns nil when no valid session exists. Expired and
// unreadable sessions are logged out.
func (s *AuthService) GetCurrentUser(ctx context.Context) (*models.Session, error) {
	session, err := s.sessionRepo.GetSession(ctx)

	var corrupt *domain.StorageCorruptionError
	if errors.As(err, &corrupt) {
		s.log.WithError(err).WithField("key", corrupt.Key).Warn("⚠️ Discarding unreadable session")
		return nil, s.Logout(ctx)
	}
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	if session.Expired(s.now()) {
		return nil, s.Logout(ctx)
	}
	return session, nil
}

// IsLoggedIn reports whether a valid session exists
func (s *AuthService) IsLoggedIn(ctx context.Context) bool {
	session, err := s.GetCurrentUser(ctx)
	return err == nil && session != nil
}

// Logout clears the session, its tokens and the display record. Idempotent.
func (s *AuthService) Logout(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	return s.logout(ctx)
}

func (s *AuthService) logout(ctx context.Context) error {
	s.stopWatchdog()

	if err := s.sessionRepo.ClearSession(ctx); err != nil {
		return err
	}
	return s.sessionRepo.ClearDisplay(ctx)
}

// Discard empties the tab's session area without touching the durable display
// record, like a browser dropping session storage when a tab closes
func (s *AuthService) Discard(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.stopWatchdog()
	return s.sessionRepo.ClearArea(ctx)
}

// GetDisplay returns the durable greeting record, or nil when nobody is
// logged in. An unreadable record reads as nil.
func (s *AuthService) GetDisplay(ctx context.Context) (*models.UserDisplay, error) {
	display, err := s.sessionRepo.GetDisplay(ctx)

	var corrupt *domain.StorageCorruptionError
	if errors.As(err, &corrupt) {
		s.log.WithError(err).WithField("key", corrupt.Key).Warn("⚠️ Ignoring unreadable display record")
		return nil, nil
	}
	return display, err
}

// RequireAuth returns the session, or the redirect target a logged-out tab
// should follow. Targets outside the site origin are replaced by the login path.
func (s *AuthService) RequireAuth(ctx context.Context, redirect string) (*models.Session, string, error) {
	session, err := s.GetCurrentUser(ctx)
	if err != nil {
		return nil, "", err
	}
	if session != nil {
		return session, "", nil
	}
	return nil, s.safeRedirect(redirect), nil
}

func (s *AuthService) safeRedirect(target string) string {
	if target != "" && security.IsSafeRedirect(s.cfg.SiteOrigin, target) {
		return target
	}
	return s.cfg.Session.LoginPath
}

// Touch records user activity and re-arms the inactivity watchdog. A
// watchdog that has already fired is not revived.
func (s *AuthService) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = s.now()
	if s.idle != nil {
		s.armLocked()
	}
}

// LastActivity returns the time of the last login or Touch
func (s *AuthService) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// CheckExpiry logs out an expired session and notifies the logout listener.
// Reports whether a logout happened.
func (s *AuthService) CheckExpiry(ctx context.Context) (bool, error) {
	session, err := s.sessionRepo.GetSession(ctx)

	var corrupt *domain.StorageCorruptionError
	switch {
	case errors.As(err, &corrupt):
		return true, s.autoLogout(ctx, LogoutUnreadable)
	case err != nil:
		return false, err
	case session == nil:
		return false, nil
	case session.Expired(s.now()):
		return true, s.autoLogout(ctx, LogoutExpired)
	}
	return false, nil
}

// CSRFToken returns the token of the current session, creating one if needed
func (s *AuthService) CSRFToken(ctx context.Context) (string, error) {
	session, err := s.GetCurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", domain.ErrUnauthorized
	}

	token, err := s.sessionRepo.GetCSRFToken(ctx)
	if err != nil {
		return "", err
	}
	if token != "" {
		return token, nil
	}

	token, err = security.GenerateCSRFToken()
	if err != nil {
		return "", err
	}
	return token, s.sessionRepo.SaveCSRFToken(ctx, token)
}

// ValidateCSRFToken compares token with the stored one in constant time
func (s *AuthService) ValidateCSRFToken(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	stored, err := s.sessionRepo.GetCSRFToken(ctx)
	if err != nil || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1
}

func (s *AuthService) autoLogout(ctx context.Context, reason string) error {
	if err := s.Logout(ctx); err != nil {
		return err
	}
	s.ended(reason)
	return nil
}

func (s *AuthService) ended(reason string) {
	s.log.WithField("reason", reason).Info("🔒 Session ended")

	s.mu.Lock()
	listener := s.onLogout
	s.mu.Unlock()
	if listener != nil {
		listener(LogoutEvent{Reason: reason, Redirect: s.cfg.Session.LoginPath})
	}
}

// expireIdle runs when the watchdog of generation gen fires. The generation is
// claimed under mu, so a Touch either re-arms first and makes this a no-op,
// or comes after the claim and leaves the watchdog stopped.
func (s *AuthService) expireIdle(ctx context.Context, gen uint64) {
	s.op.Lock()

	s.mu.Lock()
	current := s.idleGen == gen && s.idle != nil
	if current {
		s.idle.Stop()
		s.idle = nil
		s.idleGen++
	}
	s.mu.Unlock()

	if !current {
		s.op.Unlock()
		return
	}

	err := s.logout(ctx)
	s.op.Unlock()
	if err != nil {
		s.log.WithError(err).Error("❌ Inactivity logout failed")
		return
	}
	s.ended(LogoutInactivity)
}

// armWatchdog (re)starts the inactivity timer
func (s *AuthService) armWatchdog() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = s.now()
	s.armLocked()
}

// armLocked replaces the running timer with a new generation. mu must be held.
func (s *AuthService) armLocked() {
	if s.idle != nil {
		s.idle.Stop()
	}
	s.idleGen++
	gen := s.idleGen

	s.idle = time.AfterFunc(s.cfg.Session.IdleTimeout, func() {
		s.expireIdle(context.Background(), gen)
	})
}

func (s *AuthService) stopWatchdog() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idle != nil {
		s.idle.Stop()
		s.idle = nil
	}
	s.idleGen++
}

// WatchdogArmed reports whether the inactivity timer is running
func (s *AuthService) WatchdogArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle != nil
}
