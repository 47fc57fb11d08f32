package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

// RoundHandler serves the sentence builder of a round
type RoundHandler struct {
	rounds *service.RoundService
	log    *logger.Logger
}

// NewRoundHandler creates a new round handler
func NewRoundHandler(rounds *service.RoundService, log *logger.Logger) *RoundHandler {
	return &RoundHandler{rounds: rounds, log: log.With("handler", "round")}
}

type tapRequest struct {
	Slot    int    `json:"slot" validate:"oneof=1 2"`
	TokenID string `json:"token_id" validate:"required,max=200"`
}

// roundParams reads the scene and round from the path
func roundParams(r *http.Request) (int, int, bool) {
	sceneN, err := strconv.Atoi(chi.URLParam(r, "scene"))
	if err != nil || sceneN < 1 {
		return 0, 0, false
	}
	roundN, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil || roundN < 1 {
		return 0, 0, false
	}
	return sceneN, roundN, true
}

func (h *RoundHandler) params(w http.ResponseWriter, r *http.Request) (*service.Identity, int, int, bool) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondNotice(w, http.StatusUnauthorized, NoticeSignInRequired)
		return nil, 0, 0, false
	}
	sceneN, roundN, ok := roundParams(r)
	if !ok {
		respondWithError(w, h.log, http.StatusNotFound, CodeNotFound, "Round not found", nil)
		return nil, 0, 0, false
	}
	return identity, sceneN, roundN, true
}

// Open returns the round content, the learner's builder and the saved row
func (h *RoundHandler) Open(w http.ResponseWriter, r *http.Request) {
	identity, sceneN, roundN, ok := h.params(w, r)
	if !ok {
		return
	}
	view, err := h.rounds.Open(r.Context(), identity.UserID, sceneN, roundN)
	if err != nil {
		respondServiceError(w, h.log, err, http.StatusInternalServerError, CodeLoadFailed, ErrLoadFailed)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Tap places or removes one token
func (h *RoundHandler) Tap(w http.ResponseWriter, r *http.Request) {
	identity, sceneN, roundN, ok := h.params(w, r)
	if !ok {
		return
	}
	var req tapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, h.log, err)
		return
	}
	view, err := h.rounds.Tap(r.Context(), identity.UserID, sceneN, roundN, req.Slot, req.TokenID)
	if err != nil {
		respondServiceError(w, h.log, err, http.StatusInternalServerError, CodeInternal, ErrInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Reset clears both sentences
func (h *RoundHandler) Reset(w http.ResponseWriter, r *http.Request) {
	identity, sceneN, roundN, ok := h.params(w, r)
	if !ok {
		return
	}
	view, err := h.rounds.Reset(r.Context(), identity.UserID, sceneN, roundN)
	if err != nil {
		respondServiceError(w, h.log, err, http.StatusInternalServerError, CodeInternal, ErrInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Submit grades and saves the attempt. A failed save still returns the
// graded result alongside the error so the learner keeps their placement.
func (h *RoundHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, sceneN, roundN, ok := h.params(w, r)
	if !ok {
		return
	}
	result, err := h.rounds.Submit(r.Context(), identity.UserID, sceneN, roundN)
	if errors.Is(err, service.ErrSaveFailed) && result != nil {
		h.log.Error(ErrSaveFailed, "user_id", identity.UserID, "scene", sceneN, "round", roundN, "error", err)
		respondJSON(w, http.StatusBadGateway, struct {
			errorEnvelope
			Result *service.SubmitResult `json:"result"`
		}{errorEnvelope{Error: errorBody{Message: ErrSaveFailed, Code: CodeSaveFailed}}, result})
		return
	}
	if err != nil {
		respondServiceError(w, h.log, err, http.StatusInternalServerError, CodeInternal, ErrInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
