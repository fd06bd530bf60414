// Package domain contains the durable entities of the chat system.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// User is a registered account. IsOnline is a best-effort presence flag
// mutated on login/logout and live connect/disconnect; delivery decisions
// never consult it.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	IsOnline     bool      `json:"isOnline"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
