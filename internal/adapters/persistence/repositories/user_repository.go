package repositories

import (
	"context"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// userRepository implements UserRepository interface
type userRepository struct {
	users *collection[models.User]
}

// NewUserRepository creates a new user repository
func NewUserRepository(store kv.Store, log logrus.FieldLogger) UserRepository {
	return &userRepository{users: newCollection[models.User](store, KeyUsers, log)}
}

// Create appends a user. A zero ID is replaced by the creation time in
// milliseconds, bumped past the highest existing ID.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.users.Mutate(ctx, func(users []*models.User) ([]*models.User, error) {
		var maxID int64
		for _, u := range users {
			if u.Email == user.Email {
				return nil, domain.ErrUserAlreadyExists
			}
			if u.ID == user.ID && user.ID != 0 {
				return nil, domain.ErrDuplicateEntry
			}
			if u.ID > maxID {
				maxID = u.ID
			}
		}

		if user.ID == 0 {
			user.ID = user.CreatedAt.UnixMilli()
			if user.ID <= maxID {
				user.ID = maxID + 1
			}
		}

		stored := *user
		return append(users, &stored), nil
	})
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	users, err := r.users.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// GetByEmail gets a user by exact email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.users.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// Update applies fn to the stored user and writes it back. Changing the email
// to one owned by another user fails with ErrUserAlreadyExists.
func (r *userRepository) Update(ctx context.Context, id int64, fn func(user *models.User) error) (*models.User, error) {
	var updated *models.User

	err := r.users.Mutate(ctx, func(users []*models.User) ([]*models.User, error) {
		idx := -1
		for i, u := range users {
			if u.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errAbort
		}

		candidate := *users[idx]
		if err := fn(&candidate); err != nil {
			return nil, err
		}
		candidate.ID = id

		for i, u := range users {
			if i != idx && u.Email == candidate.Email {
				return nil, domain.ErrUserAlreadyExists
			}
		}

		users[idx] = &candidate
		result := candidate
		updated = &result
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a user and returns the removed record
func (r *userRepository) Delete(ctx context.Context, id int64) (*models.User, error) {
	var deleted *models.User

	err := r.users.Mutate(ctx, func(users []*models.User) ([]*models.User, error) {
		for i, u := range users {
			if u.ID == id {
				deleted = u
				return append(users[:i], users[i+1:]...), nil
			}
		}
		return nil, errAbort
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// List returns every user in storage order
func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.users.All(ctx)
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return r.users.Count(ctx)
}

// EnsureSeeded writes users when the collection has never been initialized
func (r *userRepository) EnsureSeeded(ctx context.Context, users []*models.User) (bool, error) {
	return r.users.Ensure(ctx, users)
}
