package model

import "time"

// User is keyed by email; the email doubles as the user id on the realtime
// stream and in presence records.
type User struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}
