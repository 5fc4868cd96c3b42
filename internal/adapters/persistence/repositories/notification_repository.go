package repositories

import (
	"context"
	"time"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/models"

	"github.com/sirupsen/logrus"
)

// notificationRepository implements NotificationRepository interface
type notificationRepository struct {
	notifications *collection[models.Notification]
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(store kv.Store, log logrus.FieldLogger) NotificationRepository {
	return &notificationRepository{notifications: newCollection[models.Notification](store, KeyNotifications, log)}
}

// Create appends a notification
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.notifications.Mutate(ctx, func(items []*models.Notification) ([]*models.Notification, error) {
		stored := *n
		return append(items, &stored), nil
	})
}

// List returns notifications in insertion order
func (r *notificationRepository) List(ctx context.Context) ([]*models.Notification, error) {
	items, err := r.notifications.All(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]*models.Notification, 0)
	}
	return items, nil
}

func (r *notificationRepository) Count(ctx context.Context) (int, error) {
	return r.notifications.Count(ctx)
}

// Prune drops notifications older than olderThan, then keeps only the newest
// keep entries. keep <= 0 disables the count bound. Returns how many were removed.
func (r *notificationRepository) Prune(ctx context.Context, olderThan time.Time, keep int) (int, error) {
	removed := 0

	err := r.notifications.Mutate(ctx, func(items []*models.Notification) ([]*models.Notification, error) {
		kept := make([]*models.Notification, 0, len(items))
		for _, n := range items {
			if n.Timestamp.Before(olderThan) {
				continue
			}
			kept = append(kept, n)
		}
		if keep > 0 && len(kept) > keep {
			kept = kept[len(kept)-keep:]
		}

		removed = len(items) - len(kept)
		if removed == 0 {
			return nil, errAbort
		}
		return kept, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// EnsureSeeded writes an empty collection on first start
func (r *notificationRepository) EnsureSeeded(ctx context.Context) (bool, error) {
	return r.notifications.Ensure(ctx, nil)
}
