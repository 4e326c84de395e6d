package domain

import "time"

type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"` // doubles as email for Google accounts
	PasswordHash   string     `json:"-"`
	GoogleID       *string    `json:"-"`
	FullName       string     `json:"name,omitempty"`
	ProfilePicture string     `json:"picture,omitempty"`
	ResetToken     *string    `json:"-"`
	ResetExpiry    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
}
