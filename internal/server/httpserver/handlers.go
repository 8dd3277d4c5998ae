package httpserver

import (
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pixkeeper/internal/common"
	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server/auth"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
	"github.com/dmitrijs2005/pixkeeper/internal/server/services"
)

type handler struct {
	signup         SignupService
	gallery        GalleryService
	weatherClient  WeatherClient
	db             Pinger
	logger         logging.Logger
	pages          *template.Template
	maxUploadBytes int64
	deletePolicy   string
}

func newHandler(cfg *config.Config, logger logging.Logger, d Deps) (*handler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &handler{
		signup:         d.Signup,
		gallery:        d.Gallery,
		weatherClient:  d.Weather,
		db:             d.DB,
		logger:         logger,
		pages:          pages,
		maxUploadBytes: cfg.MaxUploadBytes,
		deletePolicy:   cfg.DeletePolicy,
	}, nil
}

func (h *handler) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home.html", homeView{InviteMode: h.signup.Mode() == common.SignupModeInvite})
}

func (h *handler) signupForm(w http.ResponseWriter, r *http.Request) {
	v := signupView{
		InviteMode: h.signup.Mode() == common.SignupModeInvite,
		Token:      strings.TrimSpace(r.URL.Query().Get("token")),
	}
	if v.InviteMode && v.Token != "" {
		ok, err := h.signup.CheckToken(r.Context(), v.Token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		v.TokenChecked, v.TokenValid = true, ok
	}
	h.render(w, r, http.StatusOK, "signup.html", v)
}

func (h *handler) submitSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, errors.Join(common.ErrorValidation, err))
		return
	}

	u, err := h.signup.Submit(r.Context(), services.SignupRequest{
		Username:    strings.TrimSpace(r.PostFormValue("username")),
		Email:       r.PostFormValue("email"),
		Password:    r.PostFormValue("password"),
		InviteToken: r.PostFormValue("invite_token"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.render(w, r, http.StatusCreated, "signup_done.html", signupDoneView{
		Username: u.UserName,
		Pending:  u.Status == common.UserStatusPending,
	})
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	pending, err := h.signup.ListPending(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tokens, err := h.signup.ListTokens(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "dashboard.html", newDashboardView(id.Username, h.signup.Mode(), pending, tokens))
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	if err := h.signup.Approve(r.Context(), strings.TrimSpace(r.PostFormValue("user_id"))); err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

func (h *handler) generateToken(w http.ResponseWriter, r *http.Request) {
	t, err := h.signup.GenerateToken(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.render(w, r, http.StatusCreated, "token.html", newTokenView{
		Token:     t.Token,
		SignupURL: "/signup?token=" + url.QueryEscape(t.Token),
	})
}

func (h *handler) viewGallery(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	items, err := h.gallery.List(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	v := galleryView{Username: id.Username, IsAdmin: id.IsAdmin}
	for _, item := range items {
		v.Images = append(v.Images, newImageView(item, h.canDelete(id, item.Record.UploadedBy)))
	}
	h.render(w, r, http.StatusOK, "gallery.html", v)
}

func (h *handler) canDelete(id *auth.Identity, uploadedBy string) bool {
	if h.deletePolicy != common.DeletePolicyOwner || id.IsAdmin {
		return true
	}
	return strings.EqualFold(id.Username, uploadedBy)
}

func (h *handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	if r.ContentLength > h.maxUploadBytes {
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, r, errors.Join(common.ErrorValidation, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, errors.Join(common.ErrorValidation, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if _, err := h.gallery.Upload(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), data); err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/view-gallery", http.StatusSeeOther)
}

func (h *handler) downloadImage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	dl, err := h.gallery.Download(r.Context(), id, r.URL.Query().Get("storage_path"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer dl.Object.Body.Close()

	w.Header().Set("Content-Type", dl.Object.ContentType)
	if dl.Object.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Object.Size, 10))
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Object.Body); err != nil {
		h.logger.Warn(r.Context(), "download interrupted", "error", err)
	}
}

func (h *handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	if err := h.gallery.Delete(r.Context(), id, r.PostFormValue("file_path")); err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/view-gallery", http.StatusSeeOther)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	unauthorized(w)
}

func (h *handler) weather(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		http.Error(w, "lat and lon must be valid coordinates", http.StatusBadRequest)
		return
	}

	body, err := h.weatherClient.Current(r.Context(), lat, lon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}
