package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/annetmii/annetmii-english-camp/internal/logger"
	"github.com/annetmii/annetmii-english-camp/internal/repository"
	"github.com/annetmii/annetmii-english-camp/internal/sentence"
	"github.com/annetmii/annetmii-english-camp/internal/service"
	"github.com/annetmii/annetmii-english-camp/internal/validation"
)

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type noticeEnvelope struct {
	Notice string `json:"notice"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"Internal server error","code":"internal_error"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, code, userMsg string, err error) {
	if err != nil {
		if status >= http.StatusInternalServerError {
			log.Error(userMsg, "code", code, "error", err)
		} else {
			log.Debug(userMsg, "code", code, "error", err)
		}
	}
	respondJSON(w, status, errorEnvelope{Error: errorBody{Message: userMsg, Code: code}})
}

// respondNotice answers unauthenticated or unauthorized requests with a
// prompt rather than an error
func respondNotice(w http.ResponseWriter, status int, notice string) {
	respondJSON(w, status, noticeEnvelope{Notice: notice})
}

// respondServiceError maps known domain errors to a status and code. Anything
// else is answered with the fallback.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, fallbackStatus int, fallbackCode, fallbackMsg string) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, log, http.StatusBadRequest, CodeValidation, verr.Message, err)
	case errors.Is(err, service.ErrCommentTooLong):
		respondWithError(w, log, http.StatusBadRequest, CodeValidation, err.Error(), err)
	case errors.Is(err, service.ErrRoundNotFound):
		respondWithError(w, log, http.StatusNotFound, CodeNotFound, "Round not found", err)
	case errors.Is(err, repository.ErrSubmissionNotFound):
		respondWithError(w, log, http.StatusNotFound, CodeNotFound, "Submission not found", err)
	case errors.Is(err, sentence.ErrUnknownToken), errors.Is(err, sentence.ErrInvalidSlot):
		respondWithError(w, log, http.StatusBadRequest, CodeInvalidRequest, err.Error(), err)
	case errors.Is(err, sentence.ErrSubmitInFlight):
		respondWithError(w, log, http.StatusConflict, CodeSubmitInFlight, err.Error(), err)
	case errors.Is(err, service.ErrSaveFailed):
		respondWithError(w, log, http.StatusBadGateway, CodeSaveFailed, ErrSaveFailed, err)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, log, http.StatusConflict, CodeEmailTaken, "Email already registered", err)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, log, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", err)
	default:
		respondWithError(w, log, fallbackStatus, fallbackCode, fallbackMsg, err)
	}
}

// decodeJSON reads a bounded JSON body into dst and validates it
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", ErrInvalidRequest, err)
	}
	return validation.Struct(dst)
}

// respondDecodeError answers a decodeJSON failure
func respondDecodeError(w http.ResponseWriter, log *logger.Logger, err error) {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		respondWithError(w, log, http.StatusBadRequest, CodeValidation, verr.Message, err)
		return
	}
	respondWithError(w, log, http.StatusBadRequest, CodeInvalidRequest, ErrInvalidRequest, err)
}
