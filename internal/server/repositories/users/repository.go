// Package users declares the Credential Store: registered accounts with a
// pending/active status and a bcrypt password hash.
package users

import (
	"context"

	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts a user and fills in ID and CreatedAt. A taken username
	// yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Activate moves a pending user to active and reports whether a row
	// changed. Already active or missing users report false.
	Activate(ctx context.Context, id string) (bool, error)
	ListByStatus(ctx context.Context, status string) ([]*models.User, error)
}
