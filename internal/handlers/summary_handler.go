package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/service"
)

// SubmissionHandler serves the learner summary and the coach review
type SubmissionHandler struct {
	submissions *service.SubmissionService
	log         *logger.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissions *service.SubmissionService, log *logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, log: log.With("handler", "submission")}
}

type commentRequest struct {
	Comment string `json:"comment" validate:"max=8000"`
}

// sceneQuery reads ?scene=, returning 0 when absent or invalid
func sceneQuery(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("scene"))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Summary lists the learner's submissions for a scene
func (h *SubmissionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	identity := GetIdentityFromContext(r.Context())
	if identity == nil {
		respondNotice(w, http.StatusUnauthorized, NoticeSignInRequired)
		return
	}
	summary, err := h.submissions.Summary(r.Context(), identity.UserID, sceneQuery(r))
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, CodeLoadFailed, ErrLoadFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// CoachReview lists every learner's latest row for a scene
func (h *SubmissionHandler) CoachReview(w http.ResponseWriter, r *http.Request) {
	scene := sceneQuery(r)
	if scene == 0 {
		scene = 1
	}
	review, err := h.submissions.CoachReview(r.Context(), scene)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, CodeLoadFailed, ErrLoadFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// SetComment stores a coach comment on a submission
func (h *SubmissionHandler) SetComment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		respondWithError(w, h.log, http.StatusNotFound, CodeNotFound, "Submission not found", nil)
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDecodeError(w, h.log, err)
		return
	}
	sub, err := h.submissions.SetCoachComment(r.Context(), id, req.Comment)
	if err != nil {
		respondServiceError(w, h.log, err, http.StatusInternalServerError, CodeSaveFailed, ErrSaveFailed)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}
