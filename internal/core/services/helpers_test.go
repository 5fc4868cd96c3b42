package services

import (
	"sync"
	"testing"
	"time"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/config"
	"invite-portal/internal/pkg/password"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode:    "dev",
		SiteOrigin: "http://localhost:3000",
		Session: config.SessionConfig{
			Lifetime:    8 * time.Hour,
			IdleTimeout: 30 * time.Minute,
			TabIdleTTL:  12 * time.Hour,
			LoginPath:   "login.html",
		},
		Password: config.PasswordConfig{Scheme: "bcrypt", BcryptCost: 4, Salt: password.DefaultSalt},
		Cleanup: config.CleanupConfig{
			StartupDelay:          time.Hour,
			ApplicationExpiryDays: 30,
			NotificationRetention: 720 * time.Hour,
			NotificationMaxCount:  100,
		},
		Seed: config.SeedConfig{DefaultUsers: true},
	}
}

// testEnv wires every service over one in-memory durable store
type testEnv struct {
	t       *testing.T
	cfg     *config.Config
	clock   *fakeClock
	store   *kv.MemoryStore
	log     *logrus.Logger
	hook    *test.Hook
	users   repositories.UserRepository
	apps    repositories.ApplicationRepository
	notes   repositories.NotificationRepository
	setRepo repositories.SettingsRepository

	notifications *NotificationService
	applications  *ApplicationService
	userService   *UserService
	database      *DatabaseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	env := &testEnv{
		t:     t,
		cfg:   testConfig(),
		clock: newFakeClock(),
		store: kv.NewMemoryStore(),
		log:   log,
		hook:  hook,
	}

	env.users = repositories.NewUserRepository(env.store, log)
	env.apps = repositories.NewApplicationRepository(env.store, log)
	env.notes = repositories.NewNotificationRepository(env.store, log)
	env.setRepo = repositories.NewSettingsRepository(env.store, log)

	hasher := password.Bcrypt{Cost: env.cfg.Password.BcryptCost}
	env.notifications = NewNotificationService(env.notes, env.clock.Now, log)
	env.applications = NewApplicationService(env.apps, env.notifications, env.clock.Now, log)
	env.userService = NewUserService(env.users, hasher, env.clock.Now, log)
	env.database = NewDatabaseService(env.store, config.BackendMemory, env.users, env.apps, env.notes, env.setRepo,
		env.notifications, hasher, env.cfg, env.clock.Now, log)

	return env
}

// newAuth builds the auth service of a fresh tab sharing the durable store
func (e *testEnv) newAuth() *AuthService {
	sessions := repositories.NewSessionRepository(kv.NewMemoryStore(), e.store)
	return NewAuthService(e.users, sessions, password.Verifier{Salt: e.cfg.Password.Salt}, e.cfg, e.clock.Now, e.log)
}
