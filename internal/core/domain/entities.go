package domain

// Tier is the coarse privilege level that gates dashboard features.
type Tier string

const (
	TierPending  Tier = "pending"
	TierApproved Tier = "approved"
	TierPremium  Tier = "premium"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierPending, TierApproved, TierPremium:
		return true
	}
	return false
}

// Experience is the self-reported applicant experience level.
type Experience string

const (
	ExperienceBeginner     Experience = "beginner"
	ExperienceIntermediate Experience = "intermediate"
	ExperienceAdvanced     Experience = "advanced"
	ExperienceExpert       Experience = "expert"
)

func (e Experience) Valid() bool {
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced, ExperienceExpert:
		return true
	}
	return false
}

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusSubmitted ApplicationStatus = "submitted"
	StatusReviewing ApplicationStatus = "reviewing"
	StatusApproved  ApplicationStatus = "approved"
	StatusRejected  ApplicationStatus = "rejected"
	StatusWithdrawn ApplicationStatus = "withdrawn"
	StatusExpired   ApplicationStatus = "expired"
)

// ApplicationStatuses lists every status in lifecycle order.
var ApplicationStatuses = []ApplicationStatus{
	StatusSubmitted,
	StatusReviewing,
	StatusApproved,
	StatusRejected,
	StatusWithdrawn,
	StatusExpired,
}

func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Open reports whether the application still awaits a decision.
func (s ApplicationStatus) Open() bool {
	return s == StatusSubmitted || s == StatusReviewing
}

// NotificationType classifies system notifications.
type NotificationType string

const (
	NotificationNewApplication      NotificationType = "new_application"
	NotificationStatusUpdate        NotificationType = "status_update"
	NotificationApplicationsExpired NotificationType = "applications_expired"
)

// Field limits for submitted applications, users and settings.
const (
	InterestMinLength   = 25
	InterestMaxLength   = 300
	NameMaxLength       = 100
	PasswordMinLength   = 6
	UsernameMinLength   = 3
	SiteNameMaxLength   = 100
	ApplicationIDPrefix = "FS-"
)
