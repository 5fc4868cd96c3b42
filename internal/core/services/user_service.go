package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/pkg/security"

	"github.com/sirupsen/logrus"
)

// UserService handles user management business logic.
// Every user it returns is a UserResponse, never the stored record.
type UserService struct {
	userRepo repositories.UserRepository
	hasher   Hasher
	now      Clock
	log      logrus.FieldLogger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, hasher Hasher, now Clock, log logrus.FieldLogger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		now:      now,
		log:      log,
	}
}

// CreateUserInput represents create user input
type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// UpdateUserInput represents update user input (for admin)
type UpdateUserInput struct {
	Email    *string      `json:"email"`
	Username *string      `json:"username"`
	Tier     *domain.Tier `json:"tier"`
}

func validateUserInput(input *CreateUserInput) []string {
	var reasons []string

	if input.Email == "" || !security.IsValidEmail(input.Email) {
		reasons = append(reasons, "Invalid email address")
	}
	if utf8.RuneCountInString(input.Password) < domain.PasswordMinLength {
		reasons = append(reasons, fmt.Sprintf("Password must be at least %d characters long", domain.PasswordMinLength))
	}
	if input.Username != "" && utf8.RuneCountInString(input.Username) < domain.UsernameMinLength {
		reasons = append(reasons, fmt.Sprintf("Username must be at least %d characters long", domain.UsernameMinLength))
	}

	return reasons
}

// CreateUser registers a pending user. A missing username defaults to the
// local part of the email.
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.UserResponse, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)

	if err := domain.NewValidationError(validateUserInput(input)); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	username := input.Username
	if username == "" {
		username = strings.SplitN(input.Email, "@", 2)[0]
	}

	user := &models.User{
		Email:          security.SanitizeText(input.Email),
		PasswordDigest: digest,
		Username:       security.SanitizeText(username),
		Tier:           domain.TierPending,
		CreatedAt:      s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   security.MaskEmail(user.Email),
	}).Info("👤 User created")

	return user.ToResponse(), nil
}

// GetUserByID returns (nil, nil) for an unknown id
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// GetUserByEmail returns (nil, nil) for an unknown email
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.UserResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	user, err := s.userRepo.GetByEmail(ctx, security.SanitizeText(email))
	if err != nil || user == nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUser changes email, username or tier. Returns (nil, nil) for an unknown id.
func (s *UserService) UpdateUser(ctx context.Context, id int64, input *UpdateUserInput) (*models.UserResponse, error) {
	var reasons []string
	if input.Email != nil && !security.IsValidEmail(*input.Email) {
		reasons = append(reasons, "Invalid email address")
	}
	if input.Username != nil && utf8.RuneCountInString(strings.TrimSpace(*input.Username)) < domain.UsernameMinLength {
		reasons = append(reasons, fmt.Sprintf("Username must be at least %d characters long", domain.UsernameMinLength))
	}
	if err := domain.NewValidationError(reasons); err != nil {
		return nil, err
	}
	if input.Tier != nil && !input.Tier.Valid() {
		return nil, domain.ErrInvalidTier
	}

	user, err := s.userRepo.Update(ctx, id, func(u *models.User) error {
		if input.Email != nil {
			u.Email = security.SanitizeText(strings.TrimSpace(*input.Email))
		}
		if input.Username != nil {
			u.Username = security.SanitizeText(strings.TrimSpace(*input.Username))
		}
		if input.Tier != nil {
			u.Tier = *input.Tier
		}
		return nil
	})
	if err != nil || user == nil {
		return nil, err
	}

	s.log.WithField("user_id", id).Info("👤 User updated")
	return user.ToResponse(), nil
}

// DeleteUser removes a user and returns the removed record without its digest.
// Returns (nil, nil) for an unknown id.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (*models.UserResponse, error) {
	user, err := s.userRepo.Delete(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}

	s.log.WithField("user_id", id).Info("🗑️ User deleted")
	return user.ToResponse(), nil
}

// GetAllUsers lists every user without digests
func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.UserResponse, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}
