package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/pkg/password"
	"invite-portal/internal/pkg/security"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// idAttempts bounds how often a colliding application ID is regenerated
const idAttempts = 5

// ApplicationService handles application business logic
type ApplicationService struct {
	repo          repositories.ApplicationRepository
	notifications *NotificationService
	now           Clock
	log           logrus.FieldLogger
}

// NewApplicationService creates a new application service
func NewApplicationService(
	repo repositories.ApplicationRepository,
	notifications *NotificationService,
	now Clock,
	log logrus.FieldLogger,
) *ApplicationService {
	return &ApplicationService{
		repo:          repo,
		notifications: notifications,
		now:           now,
		log:           log,
	}
}

// sanitizeSubmission escapes every text field. The email is trimmed first.
func sanitizeSubmission(input *models.ApplicationSubmission) models.ApplicationSubmission {
	return models.ApplicationSubmission{
		Email:             security.SanitizeText(strings.TrimSpace(input.Email)),
		Experience:        security.SanitizeText(input.Experience),
		Interest:          security.SanitizeText(input.Interest),
		Source:            security.SanitizeText(input.Source),
		Name:              security.SanitizeText(input.Name),
		ClientFingerprint: input.ClientFingerprint,
	}
}

// validateSubmission returns every reason the sanitized submission is rejected
func validateSubmission(s *models.ApplicationSubmission) []string {
	var reasons []string

	if s.Email == "" {
		reasons = append(reasons, "Email is required")
	} else if !security.IsValidEmail(s.Email) {
		reasons = append(reasons, "Invalid email address format")
	}

	if !domain.Experience(s.Experience).Valid() {
		reasons = append(reasons, "Invalid experience level")
	}

	if utf8.RuneCountInString(strings.TrimSpace(s.Interest)) < domain.InterestMinLength {
		reasons = append(reasons, fmt.Sprintf("Interest description length must be at least %d characters", domain.InterestMinLength))
	} else if utf8.RuneCountInString(s.Interest) > domain.InterestMaxLength {
		reasons = append(reasons, fmt.Sprintf("Interest description length must be at most %d characters", domain.InterestMaxLength))
	}

	if utf8.RuneCountInString(s.Name) > domain.NameMaxLength {
		reasons = append(reasons, fmt.Sprintf("Name length must be at most %d characters", domain.NameMaxLength))
	}

	return reasons
}

func (s *ApplicationService) newApplicationID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s%d-%s", domain.ApplicationIDPrefix, s.now().UnixMilli(), suffix)
}

// CreateApplication sanitizes, validates and stores a submission.
// Validation failures return a *domain.ValidationError and write nothing.
func (s *ApplicationService) CreateApplication(ctx context.Context, input *models.ApplicationSubmission) (*models.Application, error) {
	if input == nil {
		return nil, domain.NewValidationError([]string{"Email is required"})
	}

	clean := sanitizeSubmission(input)
	if err := domain.NewValidationError(validateSubmission(&clean)); err != nil {
		return nil, err
	}

	now := s.now()
	app := &models.Application{
		Email:      clean.Email,
		Experience: domain.Experience(clean.Experience),
		Interest:   clean.Interest,
		Source:     clean.Source,
		Name:       clean.Name,
		Status:     domain.StatusSubmitted,
		Timestamp:  now,
		UpdatedAt:  now,
	}
	if clean.ClientFingerprint != "" {
		app.ClientHash = password.HashToken(clean.ClientFingerprint)
	}

	var err error
	for attempt := 0; attempt < idAttempts; attempt++ {
		app.ID = s.newApplicationID()
		err = s.repo.Create(ctx, app)
		if !errors.Is(err, domain.ErrDuplicateEntry) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store application: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"application_id": app.ID,
		"email":          security.MaskEmail(app.Email),
	}).Info("📝 Application submitted")

	// the record is already stored; a lost notification is only logged
	_ = s.notifications.NotifyNewApplication(ctx, app)

	return app, nil
}

// UpdateApplicationStatus returns (nil, nil) for an unknown id
func (s *ApplicationService) UpdateApplicationStatus(ctx context.Context, id string, status domain.ApplicationStatus) (*models.Application, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if id == "" {
		return nil, nil
	}

	app, err := s.repo.UpdateStatus(ctx, id, status, s.now())
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, nil
	}

	s.log.WithFields(logrus.Fields{
		"application_id": app.ID,
		"status":         app.Status,
	}).Info("🔄 Application status changed")

	_ = s.notifications.NotifyStatusChange(ctx, app)

	return app, nil
}

// GetUserApplications returns one applicant's applications, newest first
func (s *ApplicationService) GetUserApplications(ctx context.Context, email string) ([]*models.Application, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return []*models.Application{}, nil
	}
	return s.repo.ListByEmail(ctx, security.SanitizeText(email))
}

// GetAllApplications returns every application with masked emails, newest first
func (s *ApplicationService) GetAllApplications(ctx context.Context) ([]*models.Application, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	masked := make([]*models.Application, len(apps))
	for i, app := range apps {
		masked[i] = app.Masked()
	}
	return masked, nil
}

// GetApplication returns (nil, nil) for an unknown id
func (s *ApplicationService) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if id == "" {
		return nil, nil
	}
	return s.repo.GetByID(ctx, id)
}

// GetApplicationStats counts applications per status
func (s *ApplicationService) GetApplicationStats(ctx context.Context) (*models.ApplicationStats, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.ApplicationStats{
		Total:    len(apps),
		ByStatus: make(map[domain.ApplicationStatus]int, len(domain.ApplicationStatuses)),
	}
	for _, status := range domain.ApplicationStatuses {
		stats.ByStatus[status] = 0
	}
	for _, app := range apps {
		stats.ByStatus[app.Status]++
	}
	return stats, nil
}
