package services

import (
	"context"
	"fmt"
	"strings"

	"invite-portal/internal/adapters/persistence/models"
	"invite-portal/internal/adapters/persistence/repositories"
	"invite-portal/internal/core/domain"
	"invite-portal/internal/pkg/security"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationService records system notifications
type NotificationService struct {
	repo repositories.NotificationRepository
	now  Clock
	log  logrus.FieldLogger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo repositories.NotificationRepository, now Clock, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{repo: repo, now: now, log: log}
}

func (s *NotificationService) create(ctx context.Context, n *models.Notification) error {
	n.ID = uuid.NewString()
	n.Timestamp = s.now()

	if err := s.repo.Create(ctx, n); err != nil {
		s.log.WithError(err).WithField("type", n.Type).Error("❌ Failed to record notification")
		return err
	}
	return nil
}

// NotifyNewApplication records a new submission with the applicant's email masked
func (s *NotificationService) NotifyNewApplication(ctx context.Context, app *models.Application) error {
	return s.create(ctx, &models.Notification{
		Type:    domain.NotificationNewApplication,
		Title:   "New Application Submitted",
		Message: fmt.Sprintf("New application from %s", security.MaskEmail(app.Email)),
		Data:    map[string]any{"applicationId": app.ID},
	})
}

// NotifyStatusChange records a status transition
func (s *NotificationService) NotifyStatusChange(ctx context.Context, app *models.Application) error {
	return s.create(ctx, &models.Notification{
		Type:    domain.NotificationStatusUpdate,
		Title:   "Application Status Updated",
		Message: fmt.Sprintf("Application %s status changed to %s", app.ID, app.Status),
		Data:    map[string]any{"applicationId": app.ID, "newStatus": string(app.Status)},
	})
}

// NotifyApplicationsExpired records one summary for a cleanup run
func (s *NotificationService) NotifyApplicationsExpired(ctx context.Context, apps []*models.Application) error {
	if len(apps) == 0 {
		return nil
	}

	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}

	return s.create(ctx, &models.Notification{
		Type:    domain.NotificationApplicationsExpired,
		Title:   "Applications Expired",
		Message: fmt.Sprintf("%d application(s) expired without a decision: %s", len(apps), strings.Join(ids, ", ")),
		Data:    map[string]any{"applicationIds": ids, "count": len(apps)},
	})
}

// List returns every stored notification
func (s *NotificationService) List(ctx context.Context) ([]*models.Notification, error) {
	return s.repo.List(ctx)
}
