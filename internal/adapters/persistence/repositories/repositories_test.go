package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newApp(id string, email string, at time.Time, status domain.ApplicationStatus) *models.Application {
	return &models.Application{
		ID:         id,
		Email:      email,
		Experience: domain.ExperienceBeginner,
		Interest:   "I have been interested in this for a long time",
		Source:     "friend",
		Status:     status,
		Timestamp:  at,
		UpdatedAt:  at,
	}
}

func TestUserRepository_CreateAssignsIDsAndRejectsDuplicateEmail(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewUserRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	first := &models.User{Email: "a@example.com", Username: "alice", Tier: domain.TierPending, CreatedAt: base}
	second := &models.User{Email: "b@example.com", Username: "bob", Tier: domain.TierPending, CreatedAt: base}

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.Equal(t, base.UnixMilli(), first.ID)
	assert.Equal(t, base.UnixMilli()+1, second.ID)

	err := repo.Create(ctx, &models.User{Email: "a@example.com", CreatedAt: base})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUserRepository_LookupsReturnNilWhenMissing(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewUserRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	u, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.Update(ctx, 42, func(*models.User) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = repo.Delete(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_UpdateKeepsEmailUnique(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewUserRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	a := &models.User{ID: 1, Email: "a@example.com", CreatedAt: base}
	b := &models.User{ID: 2, Email: "b@example.com", CreatedAt: base}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	_, err := repo.Update(ctx, 2, func(u *models.User) error {
		u.Email = "a@example.com"
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	updated, err := repo.Update(ctx, 2, func(u *models.User) error {
		u.Tier = domain.TierPremium
		u.ID = 99
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.ID)
	assert.Equal(t, domain.TierPremium, updated.Tier)

	stored, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", stored.Email)
	assert.Equal(t, domain.TierPremium, stored.Tier)
}

func TestUserRepository_Delete(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewUserRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{ID: 7, Email: "x@example.com", PasswordDigest: "d", CreatedAt: base}))

	deleted, err := repo.Delete(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "x@example.com", deleted.Email)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCollection_RecoversFromCorruption(t *testing.T) {
	log, hook := test.NewNullLogger()
	store := kv.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, KeyUsers, []byte("{not json")))

	repo := NewUserRepository(store, log)
	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, KeyUsers, hook.LastEntry().Data["key"])
	assert.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), domain.ErrStorageCorrupt)

	raw, err := store.Get(ctx, KeyUsers)
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)
}

func TestCollection_EnsureOnlyWritesOnce(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := kv.NewMemoryStore()
	repo := NewUserRepository(store, log)
	ctx := context.Background()

	created, err := repo.EnsureSeeded(ctx, []*models.User{{ID: 1, Email: "seed@example.com", CreatedAt: base}})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.EnsureSeeded(ctx, []*models.User{{ID: 2, Email: "other@example.com", CreatedAt: base}})
	require.NoError(t, err)
	assert.False(t, created)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "seed@example.com", users[0].Email)
}

func TestCollection_ConcurrentCreatesAreNotLost(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewApplicationRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			app := newApp(fmt.Sprintf("FS-%d", i), "a@example.com", base, domain.StatusSubmitted)
			assert.NoError(t, repo.Create(ctx, app))
		}(i)
	}
	wg.Wait()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}

func TestApplicationRepository_SortedNewestFirst(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewApplicationRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newApp("FS-1", "a@example.com", base, domain.StatusSubmitted)))
	require.NoError(t, repo.Create(ctx, newApp("FS-3", "a@example.com", base.Add(2*time.Hour), domain.StatusSubmitted)))
	require.NoError(t, repo.Create(ctx, newApp("FS-2", "b@example.com", base.Add(time.Hour), domain.StatusSubmitted)))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"FS-3", "FS-2", "FS-1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := repo.ListByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "FS-3", mine[0].ID)

	none, err := repo.ListByEmail(ctx, "c@example.com")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestApplicationRepository_DuplicateIDRejected(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewApplicationRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newApp("FS-1", "a@example.com", base, domain.StatusSubmitted)))
	err := repo.Create(ctx, newApp("FS-1", "b@example.com", base, domain.StatusSubmitted))
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestApplicationRepository_UpdateStatus(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewApplicationRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newApp("FS-1", "a@example.com", base, domain.StatusSubmitted)))

	later := base.Add(time.Hour)
	updated, err := repo.UpdateStatus(ctx, "FS-1", domain.StatusApproved, later)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	assert.True(t, updated.UpdatedAt.Equal(later))

	missing, err := repo.UpdateStatus(ctx, "FS-404", domain.StatusApproved, later)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestApplicationRepository_ExpireStale(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewApplicationRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	old := base.Add(-40 * 24 * time.Hour)
	require.NoError(t, repo.Create(ctx, newApp("FS-old-submitted", "a@example.com", old, domain.StatusSubmitted)))
	require.NoError(t, repo.Create(ctx, newApp("FS-old-reviewing", "a@example.com", old, domain.StatusReviewing)))
	require.NoError(t, repo.Create(ctx, newApp("FS-old-approved", "a@example.com", old, domain.StatusApproved)))
	require.NoError(t, repo.Create(ctx, newApp("FS-new", "a@example.com", base, domain.StatusSubmitted)))

	expired, err := repo.ExpireStale(ctx, base.Add(-30*24*time.Hour), base)
	require.NoError(t, err)
	assert.Len(t, expired, 2)

	approved, err := repo.GetByID(ctx, "FS-old-approved")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)

	fresh, err := repo.GetByID(ctx, "FS-new")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, fresh.Status)

	again, err := repo.ExpireStale(ctx, base.Add(-30*24*time.Hour), base)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestNotificationRepository_Prune(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewNotificationRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			ID:        fmt.Sprintf("n%d", i),
			Type:      domain.NotificationNewApplication,
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}

	removed, err := repo.Prune(ctx, base.Add(24*time.Hour), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "n2", items[0].ID)
	assert.Equal(t, "n4", items[2].ID)

	removed, err = repo.Prune(ctx, base, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSettingsRepository_DefaultsAndCorruption(t *testing.T) {
	log, hook := test.NewNullLogger()
	store := kv.NewMemoryStore()
	repo := NewSettingsRepository(store, log)
	ctx := context.Background()

	settings, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *settings)

	created, err := repo.EnsureSeeded(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	settings.ApplicationExpiryDays = 10
	require.NoError(t, repo.Save(ctx, settings))
	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, got.ApplicationExpiryDays)

	require.NoError(t, store.Set(ctx, KeySettings, []byte("oops")))
	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *got)
	assert.Len(t, hook.Entries, 1)
}

func TestSettingsRepository_LastCleanup(t *testing.T) {
	log, _ := test.NewNullLogger()
	repo := NewSettingsRepository(kv.NewMemoryStore(), log)
	ctx := context.Background()

	at, err := repo.LastCleanup(ctx)
	require.NoError(t, err)
	assert.Nil(t, at)

	require.NoError(t, repo.SetLastCleanup(ctx, base))
	at, err = repo.LastCleanup(ctx)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, at.Equal(base))
}

func TestSessionRepository(t *testing.T) {
	tab := kv.NewMemoryStore()
	durable := kv.NewMemoryStore()
	repo := NewSessionRepository(tab, durable)
	ctx := context.Background()

	s, err := repo.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	session := &models.Session{ID: 1, Email: "a@example.com", SessionID: "sid", LoginTime: base, Expiry: base.Add(8 * time.Hour)}
	require.NoError(t, repo.SaveSession(ctx, session))
	require.NoError(t, repo.SaveCSRFToken(ctx, "token"))
	require.NoError(t, repo.SaveDisplay(ctx, &models.UserDisplay{Username: "alice", Tier: domain.TierApproved}))

	got, err := repo.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sid", got.SessionID)

	display, err := repo.GetDisplay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", display.Username)

	require.NoError(t, repo.ClearSession(ctx))
	token, err := repo.GetCSRFToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.SaveSession(ctx, session))
	require.NoError(t, repo.SaveCSRFToken(ctx, "token"))
	require.NoError(t, repo.ClearArea(ctx))
	left, err := tab.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
	display, err = repo.GetDisplay(ctx)
	require.NoError(t, err)
	require.NotNil(t, display, "the display record outlives the session area")

	require.NoError(t, tab.Set(ctx, KeySession, []byte("garbage")))
	_, err = repo.GetSession(ctx)
	var corrupt *domain.StorageCorruptionError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, KeySession, corrupt.Key)
}
