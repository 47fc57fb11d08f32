package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/security"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	IdentityContextKey ContextKey = "identity"
	BearerContextKey   ContextKey = "bearer"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
	limiter     *security.RateLimiter
	log         *logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, csrf *security.CSRFGenerator, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		csrf:        csrf,
		limiter:     limiter,
		log:         log.With("component", "http"),
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// identify resolves the caller from a bearer token or the session cookie
func (m *Middleware) identify(r *http.Request) (*service.Identity, bool, error) {
	if token := bearerToken(r); token != "" {
		identity, err := m.authService.AuthenticateToken(r.Context(), token)
		return identity, true, err
	}
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false, service.ErrSessionNotFound
	}
	identity, err := m.authService.CurrentSession(r.Context(), cookie.Value)
	return identity, false, err
}

func withIdentity(r *http.Request, identity *service.Identity, viaBearer bool) *http.Request {
	ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
	ctx = context.WithValue(ctx, BearerContextKey, viaBearer)
	return r.WithContext(ctx)
}

// LoadIdentity attaches the caller when signed in and never rejects
func (m *Middleware) LoadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, viaBearer, err := m.identify(r)
		if err == nil {
			r = withIdentity(r, identity, viaBearer)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth is middleware that requires a valid session or API token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, viaBearer, err := m.identify(r)
		switch {
		case err == nil:
			next.ServeHTTP(w, withIdentity(r, identity, viaBearer))
		case errors.Is(err, service.ErrSessionExpired):
			http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			respondNotice(w, http.StatusUnauthorized, NoticeSessionExpired)
		case errors.Is(err, service.ErrSessionNotFound):
			if _, cerr := r.Cookie(security.SessionCookieName); cerr == nil {
				http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
			}
			respondNotice(w, http.StatusUnauthorized, NoticeSignInRequired)
		default:
			respondWithError(w, m.log, http.StatusInternalServerError, CodeLoadFailed, ErrLoadFailed, err)
		}
	})
}

// RequireCoach rejects signed-in users without the coach role. It must run
// after RequireAuth.
func (m *Middleware) RequireCoach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentityFromContext(r.Context())
		if identity == nil {
			respondNotice(w, http.StatusUnauthorized, NoticeSignInRequired)
			return
		}
		if !identity.IsCoach() {
			respondNotice(w, http.StatusForbidden, NoticeCoachOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCSRF checks the CSRF header on state-changing requests made with
// the session cookie. Bearer requests carry no ambient credentials and skip
// the check.
func (m *Middleware) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if viaBearer, _ := r.Context().Value(BearerContextKey).(bool); viaBearer {
			next.ServeHTTP(w, r)
			return
		}
		identity := GetIdentityFromContext(r.Context())
		if identity == nil || !m.csrf.ValidateToken(identity.SessionID, r.Header.Get(security.CSRFHeader)) {
			respondWithError(w, m.log, http.StatusForbidden, CodeForbidden, ErrInvalidCSRFToken, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCSRFWhenSignedIn applies RequireCSRF only when LoadIdentity found a session
func (m *Middleware) RequireCSRFWhenSignedIn(next http.Handler) http.Handler {
	checked := m.RequireCSRF(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetIdentityFromContext(r.Context()) == nil {
			next.ServeHTTP(w, r)
			return
		}
		checked.ServeHTTP(w, r)
	})
}

// RateLimit limits requests per client address
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := security.GetClientIP(r)
		if !m.limiter.Allow(key) {
			retry := m.limiter.RetryAfter(key)
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
			respondWithError(w, m.log, http.StatusTooManyRequests, CodeRateLimited, ErrTooManyRequests, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Logging middleware logs HTTP requests
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		m.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// GetIdentityFromContext retrieves the signed-in user from the request context
func GetIdentityFromContext(ctx context.Context) *service.Identity {
	identity, ok := ctx.Value(IdentityContextKey).(*service.Identity)
	if !ok {
		return nil
	}
	return identity
}
