package config

import "invite-portal/internal/core/domain"

// SeedAccount is a sample user written on first start.
// For development and demos only; production accounts come from the admin API.
type SeedAccount struct {
	Email    string
	Password string
	Username string
	Tier     domain.Tier
}

// DefaultAccounts returns the sample accounts, or nil when seeding is disabled
func (c *Config) DefaultAccounts() []SeedAccount {
	if !c.Seed.DefaultUsers {
		return nil
	}
	return []SeedAccount{
		{Email: "admin@femboyskirt.com", Password: "admin123", Username: "Admin", Tier: domain.TierPremium},
		{Email: "test@test.com", Password: "test123", Username: "TestUser", Tier: domain.TierApproved},
	}
}
