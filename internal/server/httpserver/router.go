package httpserver

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/dmitrijs2005/pixkeeper/internal/logging"
	"github.com/dmitrijs2005/pixkeeper/internal/server/config"
)

func newRouter(cfg *config.Config, logger logging.Logger, gate Authenticator, h *handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", h.home)
	r.Get("/signup", h.signupForm)
	r.Post("/submit-signup", h.submitSignup)
	r.Get("/logout", h.logout)
	r.Get("/api/weather", h.weather)
	r.Get("/healthz", h.healthz)

	r.Group(func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				cfg.RateLimitPerMinute,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}
		r.Use(basicAuth(gate, logger))

		r.Get("/view-gallery", h.viewGallery)
		r.Post("/upload-image", h.uploadImage)
		r.Get("/download-image", h.downloadImage)
		r.Post("/delete-image", h.deleteImage)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/dashboard", h.dashboard)
			r.Post("/approve", h.approve)
			r.Post("/generate-token", h.generateToken)
		})
	})

	return r
}
