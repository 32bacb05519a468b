package entity

import (
	"time"
)

// User is the aggregate root for the credential domain.
// Password holds the bcrypt hash, never the plaintext.
//
// PasswordChangedAt is zero until the first reset; reset tokens issued before it
// are refused.
type User struct {
	ID                string
	FullName          string
	Email             string
	Username          string
	Password          string
	Role              Role
	IsVerified        bool
	PasswordChangedAt time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PublicProfile is the subset of User returned to clients after login.
type PublicProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// Clone returns a copy so stores can hand out records without sharing memory.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
