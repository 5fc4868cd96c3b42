package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_SeedsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.database.Init(ctx))

	users, err := env.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, "admin@femboyskirt.com", users[0].Email)
	assert.Equal(t, domain.TierPremium, users[0].Tier)
	assert.Equal(t, domain.TierApproved, users[1].Tier)

	settings, err := env.database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *settings)

	_, err = env.users.Delete(ctx, 2)
	require.NoError(t, err)
	require.NoError(t, env.database.Init(ctx))

	count, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "a second init must not reseed an existing collection")
}

func TestInit_WithoutDefaultUsers(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Seed.DefaultUsers = false
	ctx := context.Background()

	require.NoError(t, env.database.Init(ctx))

	count, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	info, err := env.database.GetDatabaseInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.Initialized)
}

func TestGetDatabaseInfo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	info, err := env.database.GetDatabaseInfo(ctx)
	require.NoError(t, err)
	assert.False(t, info.Initialized)
	assert.Equal(t, 0, info.TotalBytes)
	assert.Equal(t, "0.00 KB", info.TotalSize)

	require.NoError(t, env.database.Init(ctx))
	_, err = env.applications.CreateApplication(ctx, validSubmission("user@example.com"))
	require.NoError(t, err)

	info, err = env.database.GetDatabaseInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.Initialized)
	assert.Equal(t, "memory", info.Backend)
	assert.Equal(t, 2, info.Users)
	assert.Equal(t, 1, info.Applications)
	assert.Equal(t, 1, info.Notifications)
	assert.Equal(t, "Never", info.LastCleanup)
	assert.Positive(t, info.TotalBytes)
	assert.Equal(t, fmt.Sprintf("%.2f KB", float64(info.TotalBytes)/1024), info.TotalSize)
}

func TestCleanupOldData_ExpiresStaleApplications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.database.Init(ctx))

	old, err := env.applications.CreateApplication(ctx, validSubmission("old@example.com"))
	require.NoError(t, err)
	decided, err := env.applications.CreateApplication(ctx, validSubmission("decided@example.com"))
	require.NoError(t, err)
	_, err = env.applications.UpdateApplicationStatus(ctx, decided.ID, domain.StatusApproved)
	require.NoError(t, err)

	env.clock.Advance(31 * 24 * time.Hour)
	fresh, err := env.applications.CreateApplication(ctx, validSubmission("fresh@example.com"))
	require.NoError(t, err)

	result, err := env.database.CleanupOldData(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredApplications)

	got, err := env.applications.GetApplication(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)

	got, err = env.applications.GetApplication(ctx, decided.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)

	got, err = env.applications.GetApplication(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)

	notes, err := env.notifications.List(ctx)
	require.NoError(t, err)
	last := notes[len(notes)-1]
	assert.Equal(t, domain.NotificationApplicationsExpired, last.Type)

	info, err := env.database.GetDatabaseInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.clock.Now().Format(time.RFC3339), info.LastCleanup)
}

func TestCleanupOldData_SettingsOverrideExpiryWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.database.Init(ctx))

	settings := models.DefaultSettings()
	settings.ApplicationExpiryDays = 7
	require.NoError(t, env.setRepo.Save(ctx, &settings))

	_, err := env.applications.CreateApplication(ctx, validSubmission("user@example.com"))
	require.NoError(t, err)
	env.clock.Advance(8 * 24 * time.Hour)

	result, err := env.database.CleanupOldData(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredApplications)
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.database.Init(ctx))

	empty, negative, zero := "  ", -1, 0
	_, err := env.database.UpdateSettings(ctx, &UpdateSettingsInput{
		SiteName:               &empty,
		MaxApplicationsPerWeek: &negative,
		ApplicationExpiryDays:  &zero,
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Reasons, 3)

	stored, err := env.database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), *stored)

	name, maintenance, days := "<b>Skirts</b>", true, 7
	updated, err := env.database.UpdateSettings(ctx, &UpdateSettingsInput{
		SiteName:              &name,
		Maintenance:           &maintenance,
		ApplicationExpiryDays: &days,
	})
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;Skirts&lt;&#x2F;b&gt;", updated.SiteName)
	assert.True(t, updated.Maintenance)
	assert.True(t, updated.InviteOnly)
	assert.Equal(t, 2, updated.MaxApplicationsPerWeek)

	stored, err = env.database.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, *updated, *stored)

	_, err = env.applications.CreateApplication(ctx, validSubmission("user@example.com"))
	require.NoError(t, err)
	env.clock.Advance(8 * 24 * time.Hour)
	result, err := env.database.CleanupOldData(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredApplications)
}

func TestCleanupOldData_PrunesNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Cleanup.NotificationMaxCount = 3
	ctx := context.Background()
	require.NoError(t, env.database.Init(ctx))

	stale := &models.Notification{ID: "stale", Type: domain.NotificationNewApplication, Timestamp: env.clock.Now().Add(-60 * 24 * time.Hour)}
	require.NoError(t, env.notes.Create(ctx, stale))
	for i := 0; i < 5; i++ {
		require.NoError(t, env.notes.Create(ctx, &models.Notification{
			ID:        fmt.Sprintf("n-%d", i),
			Type:      domain.NotificationStatusUpdate,
			Timestamp: env.clock.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	result, err := env.database.CleanupOldData(ctx, env.clock.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, result.CleanedNotifications)

	notes, err := env.notes.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	ids := []string{notes[0].ID, notes[1].ID, notes[2].ID}
	assert.ElementsMatch(t, []string{"n-2", "n-3", "n-4"}, ids)
}

func TestCleanupOldData_RecoversCorruptCollection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.database.Init(ctx))
	require.NoError(t, env.store.Set(ctx, repositories.KeyApplications, []byte("not json")))

	result, err := env.database.CleanupOldData(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, result.ExpiredApplications)

	count, err := env.apps.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
