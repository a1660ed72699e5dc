package domain

import "time"

// Admin is a portal administrator account. Admin access is granted by an
// issued token, never by transient client-side state.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
