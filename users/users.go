package users

import (
	"time"
)

// CompanyRef links a recruiter identity to the company it acts for.
type CompanyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is the persisted identity. RefreshToken holds the single live refresh
// token for the identity, or is empty when no session exists.
type User struct {
	ID           string      `json:"id,omitempty"`
	Name         string      `json:"name,omitempty"`
	Email        string      `json:"email,omitempty"`
	PasswordHash string      `json:"-"` // never serialize
	Age          int         `json:"age,omitempty"`
	Gender       string      `json:"gender,omitempty"`
	Address      string      `json:"address,omitempty"`
	RoleID       string      `json:"role,omitempty"`
	Company      *CompanyRef `json:"company,omitempty"`
	RefreshToken string      `json:"-"` // never serialize
	CreatedAt    time.Time   `json:"createdAt,omitempty"`
	UpdatedAt    time.Time   `json:"updatedAt,omitempty"`
}

// Clone returns a copy that shares no pointers with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Company != nil {
		company := *u.Company
		c.Company = &company
	}
	return &c
}
