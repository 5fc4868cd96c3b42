package models

import (
	"time"

	"invite-portal/internal/core/domain"
	"invite-portal/internal/pkg/security"
)

// ============================================================
// Durable collections
// ============================================================

// User is one record of the users collection
type User struct {
	ID             int64       `json:"id"`
	Email          string      `json:"email"`
	PasswordDigest string      `json:"passwordDigest"`
	Username       string      `json:"username"`
	Tier           domain.Tier `json:"tier"`
	CreatedAt      time.Time   `json:"createdAt"`
	LastLogin      *time.Time  `json:"lastLogin"`
}

// UserResponse DTO
type UserResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Tier      domain.Tier `json:"tier"`
	CreatedAt time.Time   `json:"createdAt"`
	LastLogin *time.Time  `json:"lastLogin"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Tier:      u.Tier,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// Application is one record of the applications collection
type Application struct {
	ID         string                   `json:"id"`
	Email      string                   `json:"email"`
	Experience domain.Experience        `json:"experience"`
	Interest   string                   `json:"interest"`
	Source     string                   `json:"source"`
	Name       string                   `json:"name,omitempty"`
	Status     domain.ApplicationStatus `json:"status"`
	Timestamp  time.Time                `json:"timestamp"`
	UpdatedAt  time.Time                `json:"updatedAt"`
	ClientHash string                   `json:"ipHash,omitempty"`
}

// Masked returns a copy whose email is masked for bulk listings
func (a *Application) Masked() *Application {
	masked := *a
	masked.Email = security.MaskEmail(a.Email)
	return &masked
}

// ApplicationSubmission is the form payload before sanitization
type ApplicationSubmission struct {
	Email      string `json:"email"`
	Experience string `json:"experience"`
	Interest   string `json:"interest"`
	Source     string `json:"source"`
	Name       string `json:"name"`

	// ClientFingerprint is hashed into Application.ClientHash, never stored raw
	ClientFingerprint string `json:"-"`
}

// ApplicationStats counts applications per status
type ApplicationStats struct {
	Total    int                              `json:"total"`
	ByStatus map[domain.ApplicationStatus]int `json:"byStatus"`
}

// Notification is one record of the notifications collection
type Notification struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Data      map[string]any          `json:"data,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Settings is the site-wide settings record
type Settings struct {
	SiteName               string `json:"siteName"`
	Maintenance            bool   `json:"maintenance"`
	InviteOnly             bool   `json:"inviteOnly"`
	MaxApplicationsPerWeek int    `json:"maxApplicationsPerWeek"`
	ApplicationExpiryDays  int    `json:"applicationExpiryDays"`
}

// DefaultSettings is written on first start
func DefaultSettings() Settings {
	return Settings{
		SiteName:               "FemboySkirt",
		Maintenance:            false,
		InviteOnly:             true,
		MaxApplicationsPerWeek: 2,
		ApplicationExpiryDays:  30,
	}
}

// ============================================================
// Session area
// ============================================================

// Session is the authenticated context of one tab
type Session struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Username  string      `json:"username"`
	Tier      domain.Tier `json:"tier"`
	SessionID string      `json:"sessionId"`
	LoginTime time.Time   `json:"loginTime"`
	Expiry    time.Time   `json:"expiry"`
}

// Expired reports whether now is past the session expiry
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.Expiry)
}

// UserDisplay is the durable record the landing page greets users with
type UserDisplay struct {
	Username string      `json:"username"`
	Tier     domain.Tier `json:"tier"`
}

// ============================================================
// Shared SQL backends
// ============================================================

// Entry is one key-value row for the MySQL and PostgreSQL stores
type Entry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     []byte    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Entry) TableName() string {
	return "kv_entries"
}
