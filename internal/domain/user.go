package domain

import "time"

// User represents a registered voter.
type User struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash []byte
	Voted        bool
	CreatedAt    time.Time
}
