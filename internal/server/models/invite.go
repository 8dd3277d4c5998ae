package models

import "time"

// InviteToken is an unredeemed single-use signup code.
type InviteToken struct {
	Token     string
	CreatedAt time.Time
}
