// Package services contains the PixKeeper business logic: account signup
// under the configured policy and the image gallery.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	"github.com/dmitrijs2005/pixkeeper/internal/cryptox"
	"github.com/dmitrijs2005/pixkeeper/internal/dbx"
	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
	"github.com/dmitrijs2005/pixkeeper/internal/server/repositories/repomanager"
)

const minPasswordBytes = 8

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// SignupRequest is what an anonymous visitor submits. InviteToken is only
// consulted in invite mode.
type SignupRequest struct {
	Username    string
	Email       string
	Password    string
	InviteToken string
}

// SignupService creates accounts under the configured signup policy:
// moderated signups wait for admin approval, invite signups are active
// immediately but must redeem a single-use token.
type SignupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mode        string
	reserved    []string
	logger      logging.Logger
}

func NewSignupService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *SignupService {
	return &SignupService{
		db:          db,
		repomanager: m,
		mode:        cfg.SignupMode,
		reserved:    reservedNames(cfg),
		logger:      logger.With("module", "signup"),
	}
}

func (s *SignupService) Mode() string {
	return s.mode
}

// Submit registers a new account according to the signup policy.
func (s *SignupService) Submit(ctx context.Context, req SignupRequest) (*models.User, error) {
	req.Username = NormalizeUsername(req.Username)
	if err := s.validate(req.Username, req.Email, req.Password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	user := &models.User{
		UserName:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
	}

	if s.mode == common.SignupModeModerated {
		user.Status = common.UserStatusPending
		u, err := s.repomanager.Users(s.db).Create(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		s.logger.Info(ctx, "signup pending approval", "username", u.UserName, "user_id", u.ID)
		return u, nil
	}

	token := normalizeToken(req.InviteToken)
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	user.Status = common.UserStatusActive
	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Invites(tx).Consume(ctx, token); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error consuming invite token: %w", err)
		}

		u, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "invite redeemed", "username", created.UserName, "user_id", created.ID)
	return created, nil
}

// Approve activates a pending user. Approving an active user changes
// nothing and is not an error.
func (s *SignupService) Approve(ctx context.Context, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("%w: malformed user id", common.ErrorValidation)
	}

	repo := s.repomanager.Users(s.db)
	changed, err := repo.Activate(ctx, userID)
	if err != nil {
		return fmt.Errorf("error approving user: %w", err)
	}
	if changed {
		s.logger.Info(ctx, "user approved", "user_id", userID)
		return nil
	}

	if _, err := repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error loading user: %w", err)
	}
	return nil
}

// GenerateToken issues a new invite token. A collision fails with
// common.ErrorConflict rather than reusing an existing token.
func (s *SignupService) GenerateToken(ctx context.Context) (*models.InviteToken, error) {
	code, err := common.MakeInviteCode(common.InviteCodeLength)
	if err != nil {
		return nil, fmt.Errorf("error generating invite token: %w", err)
	}

	t, err := s.repomanager.Invites(s.db).Create(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("error storing invite token: %w", err)
	}
	s.logger.Info(ctx, "invite token issued")
	return t, nil
}

// CheckToken reports whether token is currently redeemable.
func (s *SignupService) CheckToken(ctx context.Context, token string) (bool, error) {
	token = normalizeToken(token)
	if token == "" {
		return false, nil
	}
	ok, err := s.repomanager.Invites(s.db).Exists(ctx, token)
	if err != nil {
		return false, fmt.Errorf("error checking invite token: %w", err)
	}
	return ok, nil
}

func (s *SignupService) ListPending(ctx context.Context) ([]*models.User, error) {
	users, err := s.repomanager.Users(s.db).ListByStatus(ctx, common.UserStatusPending)
	if err != nil {
		return nil, fmt.Errorf("error listing pending users: %w", err)
	}
	return users, nil
}

func (s *SignupService) ListTokens(ctx context.Context) ([]*models.InviteToken, error) {
	tokens, err := s.repomanager.Invites(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing invite tokens: %w", err)
	}
	return tokens, nil
}

// PreAuthorize creates an already active account without a token.
func (s *SignupService) PreAuthorize(ctx context.Context, username, email, password string) (*models.User, error) {
	username = NormalizeUsername(username)
	if err := s.validate(username, email, password); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		UserName:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Status:       common.UserStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.logger.Info(ctx, "user pre-authorized", "username", u.UserName, "user_id", u.ID)
	return u, nil
}

// NormalizeUsername is the stored form of a registered username. Storage
// paths are keyed by it, so two accounts never differ only by case.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func reservedNames(cfg *config.Config) []string {
	var names []string
	for _, n := range []string{cfg.AdminUsername, cfg.LegacyUsername} {
		if n != "" {
			names = append(names, NormalizeUsername(n))
		}
	}
	return names
}

func (s *SignupService) validate(username, email, password string) error {
	if err := validateCredentials(username, email, password); err != nil {
		return err
	}
	if slices.Contains(s.reserved, username) {
		return fmt.Errorf("%w: username %q is reserved", common.ErrorConflict, username)
	}
	return nil
}

func validateCredentials(username, email, password string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-32 letters, digits, '.', '_' or '-'", common.ErrorValidation)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email address is invalid", common.ErrorValidation)
	}
	if len(password) < minPasswordBytes || len(password) > cryptox.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be %d-%d bytes", common.ErrorValidation, minPasswordBytes, cryptox.MaxPasswordBytes)
	}
	return nil
}

func normalizeToken(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
