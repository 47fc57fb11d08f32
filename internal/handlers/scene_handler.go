package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/annetmii/annetmii-english-camp/internal/content"
	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

var jst = time.FixedZone("JST", 9*60*60)

// SceneHandler serves the home screen and the scene catalog
type SceneHandler struct {
	catalog  *content.Catalog
	resolver service.SceneResolver
	now      func() time.Time
	log      *logger.Logger
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(catalog *content.Catalog, resolver service.SceneResolver, log *logger.Logger) *SceneHandler {
	return &SceneHandler{
		catalog:  catalog,
		resolver: resolver,
		now:      time.Now,
		log:      log.With("handler", "scene"),
	}
}

// ListScenes returns every scene with its chunk, goals and rounds
func (h *SceneHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	resp := SceneListResponse{Characters: h.catalog.Characters()}
	for _, scene := range h.catalog.Scenes() {
		view := SceneView{Scene: scene}
		for _, round := range scene.Rounds {
			view.Rounds = append(view.Rounds, RoundInfo{
				N:              round.N,
				CharacterLabel: round.CharacterLabel,
				Situation:      round.Situation,
			})
		}
		resp.Scenes = append(resp.Scenes, view)
	}
	respondJSON(w, http.StatusOK, resp)
}

// Home resolves the learner's current scene. The date is shown in JST.
func (h *SceneHandler) Home(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondNotice(w, http.StatusUnauthorized, NoticeSignInRequired)
		return
	}

	current := h.resolver.ComputeCurrentScene(r.Context(), identity.UserID)

	resp := HomeResponse{
		User: UserView{
			ID:    identity.UserID,
			Email: identity.Email,
			Name:  identity.Name,
			Role:  identity.Role,
		},
		Date:         h.now().In(jst).Format("2006-01-02"),
		CurrentScene: current,
		Links: HomeLinks{
			Summary: fmt.Sprintf("/api/summary?scene=%d", current),
			Info:    "/api/scenes",
		},
	}
	if scene, err := h.catalog.Scene(current); err == nil {
		resp.Scene = scene
		resp.Links.Start = fmt.Sprintf("/api/scenes/%d/rounds/1", current)
	} else {
		resp.AllScenesDone = current > h.catalog.MaxScene()
	}
	if identity.IsCoach() {
		resp.Links.Coach = "/api/coach/submissions"
	}
	respondJSON(w, http.StatusOK, resp)
}
