package common

// AuthRealm is announced in the WWW-Authenticate challenge.
const AuthRealm = "PixKeeper"

// Signup policies.
const (
	SignupModeModerated = "moderated"
	SignupModeInvite    = "invite"
)

// Delete policies for gallery images.
const (
	DeletePolicyAny   = "any"
	DeletePolicyOwner = "owner"
)

// User statuses stored in users.status.
const (
	UserStatusPending = "pending"
	UserStatusActive  = "active"
)

// InviteCodeLength is the length of generated invite tokens.
const InviteCodeLength = 8
