package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/models"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
	"github.com/annetmii/annetmii-english-camp/internal/security"
	"github.com/annetmii/annetmii-english-camp/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// Identity is the signed-in user attached to a request
type Identity struct {
	UserID    string        `json:"user_id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      security.Role `json:"role"`
	SessionID string        `json:"-"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// IsCoach reports whether the identity may review submissions
func (i Identity) IsCoach() bool {
	return i.Role == security.RoleCoach
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	roles           *security.RoleMap
	tokens          *security.TokenSigner
	sessionDuration time.Duration
	log             *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, roles *security.RoleMap, tokens *security.TokenSigner, sessionDuration time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		roles:           roles,
		tokens:          tokens,
		sessionDuration: sessionDuration,
		log:             log.With("service", "AuthService"),
	}
}

// Register creates a password account and signs it in
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.Session, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, nil, err
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, passwordHash, strings.TrimSpace(name))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("user registered", "user_id", user.ID)

	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) newSession(ctx context.Context, userID string) (*models.Session, error) {
	expiresAt := time.Now().Add(s.sessionDuration)
	session, err := s.userRepo.CreateSession(ctx, security.GenerateSessionID(), userID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// CurrentSession resolves a session id to the signed-in identity
func (s *AuthService) CurrentSession(ctx context.Context, sessionID string) (*Identity, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := s.userRepo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
			s.log.Warn("failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}

	return &Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      s.roles.RoleFor(user.Email),
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// IssueAPIToken returns a bearer token bound to a session
func (s *AuthService) IssueAPIToken(session *models.Session) (string, error) {
	return s.tokens.Issue(session.UserID, session.ID, session.ExpiresAt)
}

// AuthenticateToken resolves a bearer token. The backing session must still
// exist, so signing out revokes the token.
func (s *AuthService) AuthenticateToken(ctx context.Context, raw string) (*Identity, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	identity, err := s.CurrentSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if identity.UserID != claims.Subject {
		return nil, ErrSessionNotFound
	}
	return identity, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.userRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

// OAuthLogin signs in with an OAuth identity, linking it to an existing
// account with the same email or creating a new account
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		switch {
		case existingUser != nil && existingUser.OAuthProvider != "":
			return nil, nil, ErrEmailTaken
		case existingUser != nil:
			if err := s.userRepo.LinkOAuthProvider(ctx, existingUser.ID, provider, subject); err != nil {
				return nil, nil, fmt.Errorf("failed to link oauth provider: %w", err)
			}
			user = existingUser
		default:
			if name == "" {
				name, _, _ = strings.Cut(email, "@")
			}
			user, err = s.userRepo.CreateOAuthUser(ctx, email, name, provider, subject)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create oauth user: %w", err)
			}
			s.log.Info("user registered", "user_id", user.ID, "provider", provider)
		}
	}

	session, err := s.newSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}
