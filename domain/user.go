package domain

import "time"

// User represents a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (i Identity) IsZero() bool {
	return i.UserID == ""
}
