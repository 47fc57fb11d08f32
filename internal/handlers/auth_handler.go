package handlers

import (
	"net/http"
	"time"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/models"
	"github.com/annetmii/annetmii-english-camp/internal/security"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	csrf                 *security.CSRFGenerator
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	afterLoginURL        string
	log                  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL, afterLoginURL string, log *logger.Logger) *AuthHandler {
	if afterLoginURL == "" {
		afterLoginURL = "/"
	}
	return &AuthHandler{
		authService:          authService,
		csrf:                 csrf,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		afterLoginURL:        afterLoginURL,
		log:                  log.With("handler", "auth"),
	}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

// Register creates a password account and signs it in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, h.log, err)
		return
	}

	session, _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondServiceError(w, h.log, err, http.StatusInternalServerError, CodeInternal, ErrInternalServerError)
		return
	}
	h.startSession(w, r, session, http.StatusCreated)
}

// Login handles credential sign-in
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, h.log, err)
		return
	}

	session, _, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.log, err, http.StatusInternalServerError, CodeInternal, ErrInternalServerError)
		return
	}
	h.startSession(w, r, session, http.StatusOK)
}

// startSession sets the session cookie and returns the session with an API
// token and a CSRF token
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, session *models.Session, status int) {
	identity, err := h.authService.CurrentSession(r.Context(), session.ID)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, CodeInternal, ErrInternalServerError, err)
		return
	}
	token, err := h.authService.IssueAPIToken(session)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, CodeInternal, ErrInternalServerError, err)
		return
	}
	resp, err := h.sessionResponse(identity)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, CodeInternal, ErrInternalServerError, err)
		return
	}
	resp.Token = token

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, status, resp)
}

func (h *AuthHandler) sessionResponse(identity *service.Identity) (SessionResponse, error) {
	csrfToken, err := h.csrf.GenerateToken(identity.SessionID)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{
		UserID:    identity.UserID,
		Email:     identity.Email,
		Name:      identity.Name,
		Role:      identity.Role,
		ExpiresAt: identity.ExpiresAt.UTC().Format(time.RFC3339),
		CSRFToken: csrfToken,
	}, nil
}

// Session reports the signed-in user
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondNotice(w, http.StatusUnauthorized, NoticeSignInRequired)
		return
	}
	resp, err := h.sessionResponse(identity)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, CodeInternal, ErrInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity := GetIdentityFromContext(r.Context()); identity != nil {
		if err := h.authService.Logout(r.Context(), identity.SessionID); err != nil {
			h.log.Warn("failed to delete session", "error", err)
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	respondNotice(w, http.StatusOK, NoticeSignedOut)
}
