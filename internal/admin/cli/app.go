// Package cli implements pixkeeper-admin, the operator tool for invite
// tokens, approvals and pre-authorized accounts.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
)

// ErrUsage is returned for a missing or unknown command.
var ErrUsage = errors.New("usage error")

const usage = `usage: pixkeeper-admin [flags] <command> [args]

commands:
  generate-token                    issue a single-use invite token
  approve <user-id>                 activate a pending user
  create-user <username> <email>    create an active user (password is prompted)
  pending                           list users waiting for approval
`

type SignupService interface {
	GenerateToken(ctx context.Context) (*models.InviteToken, error)
	Approve(ctx context.Context, userID string) error
	PreAuthorize(ctx context.Context, username, email, password string) (*models.User, error)
	ListPending(ctx context.Context) ([]*models.User, error)
}

type App struct {
	signup SignupService
	out    io.Writer
}

func NewApp(signup SignupService, out io.Writer) *App {
	return &App{signup: signup, out: out}
}

func (a *App) Usage() {
	fmt.Fprint(a.out, usage)
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "generate-token":
		return a.generateToken(ctx)
	case "approve":
		if len(rest) != 1 {
			return fmt.Errorf("%w: approve takes exactly one user id", ErrUsage)
		}
		return a.approve(ctx, rest[0])
	case "create-user":
		if len(rest) != 2 {
			return fmt.Errorf("%w: create-user takes <username> <email>", ErrUsage)
		}
		return a.createUser(ctx, rest[0], rest[1])
	case "pending":
		return a.pending(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func (a *App) generateToken(ctx context.Context) error {
	t, err := a.signup.GenerateToken(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, t.Token)
	return nil
}

func (a *App) approve(ctx context.Context, userID string) error {
	if err := a.signup.Approve(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user with id %s", userID)
		}
		return err
	}
	fmt.Fprintf(a.out, "user %s is active\n", userID)
	return nil
}

func (a *App) createUser(ctx context.Context, username, email string) error {
	password, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.signup.PreAuthorize(ctx, username, email, string(password))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created active user %s (%s)\n", u.UserName, u.ID)
	return nil
}

func (a *App) pending(ctx context.Context) error {
	users, err := a.signup.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "no pending users")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tREQUESTED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.UserName, u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
