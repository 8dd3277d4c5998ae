// Package invites declares the Invite Ledger: single-use signup tokens that
// exist only while unredeemed.
package invites

import (
	"context"

	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
)

// Repository defines operations for issuing, checking and redeeming invite tokens.
type Repository interface {
	// Create stores a new token. A token that already exists yields
	// common.ErrorConflict; it is never overwritten.
	Create(ctx context.Context, token string) (*models.InviteToken, error)

	// Exists reports whether token is currently unredeemed.
	Exists(ctx context.Context, token string) (bool, error)

	// Consume deletes token. It returns common.ErrorNotFound when no row was
	// deleted, which is also what the loser of a concurrent redemption sees.
	Consume(ctx context.Context, token string) error

	// List returns unredeemed tokens, newest first.
	List(ctx context.Context) ([]*models.InviteToken, error)
}
