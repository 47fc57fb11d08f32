package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// RouterDeps are the handlers and middleware mounted by NewRouter
type RouterDeps struct {
	Middleware  *Middleware
	Auth        *AuthHandler
	Scenes      *SceneHandler
	Rounds      *RoundHandler
	Submissions *SubmissionHandler
	CORSOrigins []string
	Ping        func(ctx context.Context) error
}

// NewRouter builds the HTTP API
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(d.Middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ping(ctx); err != nil {
				respondWithError(w, d.Middleware.log, http.StatusServiceUnavailable, CodeLoadFailed, "Database unavailable", err)
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/auth/{provider}/start", d.Auth.StartOAuth)
	r.Get("/auth/{provider}/callback", d.Auth.OAuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.Get("/scenes", d.Scenes.ListScenes)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/providers", d.Auth.OAuthProviders)
			r.With(d.Middleware.RateLimit).Post("/register", d.Auth.Register)
			r.With(d.Middleware.RateLimit).Post("/login", d.Auth.Login)
			r.With(d.Middleware.LoadIdentity, d.Middleware.RequireCSRFWhenSignedIn).Post("/logout", d.Auth.Logout)
			r.With(d.Middleware.LoadIdentity).Get("/session", d.Auth.Session)
		})

		r.Group(func(r chi.Router) {
			r.Use(d.Middleware.RequireAuth)
			r.Use(d.Middleware.RequireCSRF)

			r.Get("/home", d.Scenes.Home)
			r.Get("/summary", d.Submissions.Summary)

			r.Get("/scenes/{scene}/rounds/{round}", d.Rounds.Open)
			r.Post("/scenes/{scene}/rounds/{round}/tap", d.Rounds.Tap)
			r.Post("/scenes/{scene}/rounds/{round}/reset", d.Rounds.Reset)
			r.Post("/scenes/{scene}/rounds/{round}/submit", d.Rounds.Submit)

			r.Group(func(r chi.Router) {
				r.Use(d.Middleware.RequireCoach)
				r.Get("/coach/submissions", d.Submissions.CoachReview)
				r.Put("/coach/submissions/{id}/comment", d.Submissions.SetComment)
			})
		})
	})

	return r
}
