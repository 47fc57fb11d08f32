package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/annetmii/annetmii-english-camp/internal/cache"
	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/database"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/progress"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
	"github.com/annetmii/annetmii-english-camp/internal/security"
	"github.com/annetmii/annetmii-english-camp/internal/sentence"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

const (
	testCoachEmail = "coach@example.com"
	testPassword   = "correct-horse"
)

type testAppOptions struct {
	rateLimit int
	providers map[string]OAuthProvider
}

type testApp struct {
	server  *httptest.Server
	catalog *content.Catalog
	users   *repository.UserRepository
}

func newTestApp(t *testing.T, opts testAppOptions) *testApp {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "camp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.RunMigrations(ctx)
	require.NoError(t, err)

	catalog, err := content.Default()
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	resolver := progress.NewResolver(submissions, cache.NewMemory(), log)

	roles, err := security.ParseRoleMap("", []string{testCoachEmail})
	require.NoError(t, err)
	authService := service.NewAuthService(users, roles, security.NewTokenSigner("token-secret"), time.Hour, log)

	email, err := service.NewEmailService(ctx, "", "", "", "", log)
	require.NoError(t, err)

	if opts.rateLimit == 0 {
		opts.rateLimit = 100
	}
	csrf := security.NewCSRFGenerator("csrf-secret")
	mw := NewMiddleware(authService, csrf, security.NewRateLimiter(opts.rateLimit, time.Minute), log)

	router := NewRouter(RouterDeps{
		Middleware:  mw,
		Auth:        NewAuthHandler(authService, csrf, opts.providers, "", "/", log),
		Scenes:      NewSceneHandler(catalog, resolver, log),
		Rounds:      NewRoundHandler(service.NewRoundService(catalog, submissions, resolver, log), log),
		Submissions: NewSubmissionHandler(service.NewSubmissionService(submissions, users, resolver, email, log), log),
		Ping:        db.PingContext,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, catalog: catalog, users: users}
}

// apiClient keeps a cookie jar and the CSRF token of its session
type apiClient struct {
	t      *testing.T
	base   string
	http   *http.Client
	csrf   string
	bearer string
}

func (a *testApp) client(t *testing.T) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{
		t:    t,
		base: a.server.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *apiClient) do(method, path string, body interface{}) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set(security.CSRFHeader, c.csrf)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var env errorEnvelope
	decodeBody(t, resp, &env)
	return env.Error.Code
}

func notice(t *testing.T, resp *http.Response) string {
	t.Helper()
	var env noticeEnvelope
	decodeBody(t, resp, &env)
	return env.Notice
}

// register signs up a user and keeps the returned CSRF token
func (c *apiClient) register(email, name string) SessionResponse {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": testPassword,
		"name":     name,
	})
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	var session SessionResponse
	decodeBody(c.t, resp, &session)
	c.csrf = session.CSRFToken
	return session
}

func roundPath(sceneN, roundN int) string {
	return fmt.Sprintf("/api/scenes/%d/rounds/%d", sceneN, roundN)
}

func tokenWithText(t *testing.T, tokens []sentence.Token, text string) string {
	t.Helper()
	for _, tok := range tokens {
		if tok.Text == text {
			return tok.ID
		}
	}
	t.Fatalf("no available token %q", text)
	return ""
}

// place taps the words of one sentence in order and returns the last view
func (c *apiClient) place(path string, slot int, words []string) service.BuilderView {
	c.t.Helper()
	resp := c.do(http.MethodGet, path, nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var round service.RoundView
	decodeBody(c.t, resp, &round)

	view := round.Builder
	for _, word := range words {
		id := tokenWithText(c.t, view.Slots[slot-1].Available, word)
		resp := c.do(http.MethodPost, path+"/tap", map[string]interface{}{"slot": slot, "token_id": id})
		require.Equal(c.t, http.StatusOK, resp.StatusCode)
		view = service.BuilderView{}
		decodeBody(c.t, resp, &view)
	}
	return view
}

// solve places both target sentences of a round and submits them
func (c *apiClient) solve(catalog *content.Catalog, sceneN, roundN int) service.SubmitResult {
	c.t.Helper()
	_, round, err := catalog.Round(sceneN, roundN)
	require.NoError(c.t, err)

	path := roundPath(sceneN, roundN)
	c.place(path, 1, round.TargetTokens1)
	c.place(path, 2, round.TargetTokens2)

	resp := c.do(http.MethodPost, path+"/submit", nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var result service.SubmitResult
	decodeBody(c.t, resp, &result)
	return result
}
