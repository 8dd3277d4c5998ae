package httpserver

import (
	"context"

	"github.com/dmitrijs2005/pixkeeper/internal/server/auth"
	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
	"github.com/dmitrijs2005/pixkeeper/internal/server/services"
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, secret string) (*auth.Identity, error)
}

type SignupService interface {
	Mode() string
	Submit(ctx context.Context, req services.SignupRequest) (*models.User, error)
	Approve(ctx context.Context, userID string) error
	GenerateToken(ctx context.Context) (*models.InviteToken, error)
	CheckToken(ctx context.Context, token string) (bool, error)
	ListPending(ctx context.Context) ([]*models.User, error)
	ListTokens(ctx context.Context) ([]*models.InviteToken, error)
}

type GalleryService interface {
	List(ctx context.Context, caller *auth.Identity) ([]services.GalleryItem, error)
	Upload(ctx context.Context, caller *auth.Identity, fileName, contentType string, data []byte) (*models.ImageRecord, error)
	Download(ctx context.Context, caller *auth.Identity, storagePath string) (*services.Download, error)
	Delete(ctx context.Context, caller *auth.Identity, storagePath string) error
}

type WeatherClient interface {
	Current(ctx context.Context, lat, lon float64) ([]byte, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer calls into.
type Deps struct {
	Gate    Authenticator
	Signup  SignupService
	Gallery GalleryService
	Weather WeatherClient
	DB      Pinger
}
