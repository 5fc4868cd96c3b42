package repositories

import (
	"context"
	"sort"
	"time"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// applicationRepository implements ApplicationRepository interface
type applicationRepository struct {
	apps *collection[models.Application]
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(store kv.Store, log logrus.FieldLogger) ApplicationRepository {
	return &applicationRepository{apps: newCollection[models.Application](store, KeyApplications, log)}
}

// Create appends an application. An existing ID fails with ErrDuplicateEntry.
func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	return r.apps.Mutate(ctx, func(apps []*models.Application) ([]*models.Application, error) {
		for _, a := range apps {
			if a.ID == app.ID {
				return nil, domain.ErrDuplicateEntry
			}
		}
		stored := *app
		return append(apps, &stored), nil
	})
}

// GetByID gets an application by ID
func (r *applicationRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	apps, err := r.apps.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range apps {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

// ListByEmail returns the applications of one applicant, newest first
func (r *applicationRepository) ListByEmail(ctx context.Context, email string) ([]*models.Application, error) {
	apps, err := r.apps.All(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Application, 0)
	for _, a := range apps {
		if a.Email == email {
			result = append(result, a)
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// List returns every application, newest first
func (r *applicationRepository) List(ctx context.Context) ([]*models.Application, error) {
	apps, err := r.apps.All(ctx)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = make([]*models.Application, 0)
	}
	sortNewestFirst(apps)
	return apps, nil
}

// UpdateStatus sets status and updatedAt of one application
func (r *applicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, at time.Time) (*models.Application, error) {
	var updated *models.Application

	err := r.apps.Mutate(ctx, func(apps []*models.Application) ([]*models.Application, error) {
		for _, a := range apps {
			if a.ID == id {
				a.Status = status
				a.UpdatedAt = at
				result := *a
				updated = &result
				return apps, nil
			}
		}
		return nil, errAbort
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ExpireStale moves open applications submitted before cutoff to expired
func (r *applicationRepository) ExpireStale(ctx context.Context, cutoff, at time.Time) ([]*models.Application, error) {
	var expired []*models.Application

	err := r.apps.Mutate(ctx, func(apps []*models.Application) ([]*models.Application, error) {
		for _, a := range apps {
			if a.Status.Open() && a.Timestamp.Before(cutoff) {
				a.Status = domain.StatusExpired
				a.UpdatedAt = at
				result := *a
				expired = append(expired, &result)
			}
		}
		if len(expired) == 0 {
			return nil, errAbort
		}
		return apps, nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *applicationRepository) Count(ctx context.Context) (int, error) {
	return r.apps.Count(ctx)
}

// EnsureSeeded writes an empty collection on first start
func (r *applicationRepository) EnsureSeeded(ctx context.Context) (bool, error) {
	return r.apps.Ensure(ctx, nil)
}

func sortNewestFirst(apps []*models.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].Timestamp.After(apps[j].Timestamp)
	})
}
