// Package auth is the Access Gate: it decides whether a username/secret pair
// names the administrator, the optional legacy static user or an active
// registered user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	"github.com/dmitrijs2005/pixkeeper/internal/cryptox"
	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
)

// Identity is an authenticated caller.
type Identity struct {
	Username string
	IsAdmin  bool
}

// UserFinder is the part of the users repository the gate needs.
type UserFinder interface {
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
}

// StaticAccount is a username/secret pair taken from configuration.
// An empty Username disables it.
type StaticAccount struct {
	Username string
	Secret   string
}

func (a StaticAccount) matches(username, secret string) bool {
	if a.Username == "" {
		return false
	}
	// Both checks always run.
	userOK := cryptox.EqualSecrets(username, a.Username)
	secretOK := cryptox.EqualSecrets(secret, a.Secret)
	return userOK && secretOK
}

type Gate struct {
	admin  StaticAccount
	legacy StaticAccount
	users  UserFinder
}

func NewGate(admin, legacy StaticAccount, users UserFinder) *Gate {
	return &Gate{admin: admin, legacy: legacy, users: users}
}

// Authenticate returns the caller's identity or common.ErrorUnauthorized.
// Lookup failures other than "not found" are returned wrapped so the caller
// can tell an outage from bad credentials.
func (g *Gate) Authenticate(ctx context.Context, username, secret string) (*Identity, error) {
	if g.admin.matches(username, secret) {
		return &Identity{Username: g.admin.Username, IsAdmin: true}, nil
	}
	if g.legacy.matches(username, secret) {
		return &Identity{Username: g.legacy.Username}, nil
	}

	if username == "" {
		cryptox.CheckPassword(nil, secret)
		return nil, common.ErrorUnauthorized
	}

	// Registered usernames are stored lowercased.
	user, err := g.users.GetUserByLogin(ctx, strings.ToLower(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.CheckPassword(nil, secret)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if !cryptox.CheckPassword(user.PasswordHash, secret) {
		return nil, common.ErrorUnauthorized
	}
	if user.Status != common.UserStatusActive {
		return nil, common.ErrorUnauthorized
	}

	return &Identity{Username: user.UserName}, nil
}
