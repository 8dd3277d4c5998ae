// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash is a bcrypt hash; Status is
// common.UserStatusPending or common.UserStatusActive.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash []byte
	Status       string
	CreatedAt    time.Time
	ApprovedAt   *time.Time
}
