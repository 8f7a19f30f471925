package config

import "time"

type SecurityConfig interface {
	GetLoginAttempts() int
	GetLoginWindow() time.Duration
	GetDefaultRole() string
	GetAdminRole() string
	GetBcryptCost() int
}

type Security struct {
	loginAttempts int
	loginWindow   time.Duration
	defaultRole   string
	adminRole     string
	bcryptCost    int
}

var _ SecurityConfig = Security{}

// GetLoginAttempts is the number of login attempts admitted per window
func (s Security) GetLoginAttempts() int {
	return s.loginAttempts
}

func (s Security) GetLoginWindow() time.Duration {
	return s.loginWindow
}

// GetDefaultRole is the role name assigned to self-registered identities
func (s Security) GetDefaultRole() string {
	return s.defaultRole
}

func (s Security) GetAdminRole() string {
	return s.adminRole
}

func (s Security) GetBcryptCost() int {
	return s.bcryptCost
}
