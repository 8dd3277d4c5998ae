package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/pixkeeper/internal/server/models"
	"github.com/dmitrijs2005/pixkeeper/internal/server/services"
)

//go:embed templates/*.html
var templateFS embed.FS

const timeLayout = "2006-01-02 15:04"

func parsePages() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"humanBytes": humanBytes,
	}).ParseFS(templateFS, "templates/*.html")
}

type homeView struct {
	InviteMode bool
}

type signupView struct {
	InviteMode   bool
	Token        string
	TokenChecked bool
	TokenValid   bool
}

type signupDoneView struct {
	Username string
	Pending  bool
}

type pendingUserView struct {
	ID        string
	Username  string
	Email     string
	CreatedAt string
}

type tokenView struct {
	Token     string
	CreatedAt string
}

type dashboardView struct {
	Admin      string
	SignupMode string
	Pending    []pendingUserView
	Tokens     []tokenView
}

type newTokenView struct {
	Token     string
	SignupURL string
}

type imageView struct {
	FileName    string
	StoragePath string
	URL         string
	UploadedBy  string
	UploadedAt  string
	SizeBytes   int64
	CanDelete   bool
}

type galleryView struct {
	Username string
	IsAdmin  bool
	Images   []imageView
}

func newDashboardView(admin, mode string, pending []*models.User, tokens []*models.InviteToken) dashboardView {
	v := dashboardView{Admin: admin, SignupMode: mode}
	for _, u := range pending {
		v.Pending = append(v.Pending, pendingUserView{
			ID:        u.ID,
			Username:  u.UserName,
			Email:     u.Email,
			CreatedAt: u.CreatedAt.Format(timeLayout),
		})
	}
	for _, t := range tokens {
		v.Tokens = append(v.Tokens, tokenView{Token: t.Token, CreatedAt: t.CreatedAt.Format(timeLayout)})
	}
	return v
}

func newImageView(item services.GalleryItem, canDelete bool) imageView {
	return imageView{
		FileName:    item.Record.FileName,
		StoragePath: item.Record.StoragePath,
		URL:         item.URL,
		UploadedBy:  item.Record.UploadedBy,
		UploadedAt:  item.Record.CreatedAt.Format(timeLayout),
		SizeBytes:   item.Record.SizeBytes,
		CanDelete:   canDelete,
	}
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, page, data); err != nil {
		h.logger.Error(r.Context(), "template failed", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

