// Package httpapi is the REST boundary of the studio: video generation,
// project editing, review and voice synthesis.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reelstudio/internal/adapters/storage/localfs"
	"reelstudio/internal/httpapi/handlers"
	"reelstudio/internal/httpkit"
	"reelstudio/internal/pkg/logger"
	"reelstudio/internal/pkg/middleware"
)

type Deps struct {
	Handlers       handlers.Deps
	Auth           middleware.AuthConfig
	AllowedOrigins []string
	RequestTimeout time.Duration
	Log            *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	if d.Handlers.Log == nil {
		d.Handlers.Log = log
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins: d.AllowedOrigins,
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.UserIDHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	h := handlers.New(d.Handlers)
	wrap := func(fn middleware.ErrorHandlerFunc) http.HandlerFunc {
		return middleware.WrapHandler(log, fn)
	}

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- ARTIFACTS ----
	if _, ok := d.Handlers.SP.(*localfs.LocalFS); ok {
		r.Get(localfs.URLPrefix+"*", wrap(h.Artifact))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.Auth, log))

		// ---- VIDEOS ----
		r.Post("/videos/generate", wrap(h.GenerateVideo))
		r.Get("/videos/{videoId}", wrap(h.GetVideo))
		r.Post("/videos/{videoId}/rerender", wrap(h.RerenderVideo))
		r.Get("/videos/{videoId}/project", wrap(h.GetProject))
		r.Put("/videos/{videoId}/project", wrap(h.UpdateProject))
		r.Get("/videos/{videoId}/reviews", wrap(h.ListReviews))

		// ---- REVIEW ----
		r.Patch("/videos/{videoId}/review/start", wrap(h.StartReview))
		r.Patch("/videos/{videoId}/review/approve", wrap(h.ApproveVideo))
		r.Patch("/videos/{videoId}/review/reject", wrap(h.RejectVideo))

		// ---- VOICES ----
		r.Post("/voices/synthesize", wrap(h.SynthesizeVoice))
	})

	return r
}
