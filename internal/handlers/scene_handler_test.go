package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/security"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

type stubResolver int

func (s stubResolver) ComputeCurrentScene(_ context.Context, _ string) int { return int(s) }

func TestListScenesIsPublic(t *testing.T) {
	app := newTestApp(t, testAppOptions{})

	resp := app.client(t).do(http.MethodGet, "/api/scenes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list SceneListResponse
	decodeBody(t, resp, &list)

	require.Len(t, list.Scenes, app.catalog.MaxScene())
	assert.Len(t, list.Scenes[0].Rounds, content.RoundsPerScene)
	assert.NotEmpty(t, list.Scenes[0].Title)
	assert.Len(t, list.Characters, 3)
}

func homeFor(t *testing.T, current int, role security.Role, now time.Time) HomeResponse {
	t.Helper()
	catalog, err := content.Default()
	require.NoError(t, err)

	h := NewSceneHandler(catalog, stubResolver(current), logger.Nop())
	h.now = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "/api/home", nil)
	identity := &service.Identity{UserID: "u1", Email: "u1@example.com", Name: "User One", Role: role}
	req = withIdentity(req, identity, false)
	rec := httptest.NewRecorder()

	h.Home(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var home HomeResponse
	decodeBody(t, rec.Result(), &home)
	return home
}

func TestHomeUsesJSTDate(t *testing.T) {
	// 16:30 UTC is already the next day in Tokyo
	now := time.Date(2026, 3, 9, 16, 30, 0, 0, time.UTC)

	home := homeFor(t, 1, security.RoleLearner, now)

	assert.Equal(t, "2026-03-10", home.Date)
	assert.Equal(t, 1, home.CurrentScene)
	require.NotNil(t, home.Scene)
	assert.Equal(t, 1, home.Scene.N)
	assert.Equal(t, "/api/scenes/1/rounds/1", home.Links.Start)
	assert.Empty(t, home.Links.Coach)
	assert.False(t, home.AllScenesDone)
}

func TestHomeAfterLastScene(t *testing.T) {
	catalog, err := content.Default()
	require.NoError(t, err)

	home := homeFor(t, catalog.MaxScene()+1, security.RoleLearner, time.Now())

	assert.True(t, home.AllScenesDone)
	assert.Nil(t, home.Scene)
	assert.Empty(t, home.Links.Start)
}

func TestHomeShowsCoachLink(t *testing.T) {
	home := homeFor(t, 2, security.RoleCoach, time.Now())

	assert.Equal(t, "/api/coach/submissions", home.Links.Coach)
	assert.Equal(t, security.RoleCoach, home.User.Role)
}
