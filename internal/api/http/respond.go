package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sovereign-school/interactive-core/internal/adventure"
	"github.com/sovereign-school/interactive-core/internal/interaction"
	"github.com/sovereign-school/interactive-core/internal/lesson"
	"github.com/sovereign-school/interactive-core/internal/logger"
	"github.com/sovereign-school/interactive-core/internal/quiz"
	"github.com/sovereign-school/interactive-core/internal/sessions"
	"github.com/sovereign-school/interactive-core/internal/storage"
	"github.com/sovereign-school/interactive-core/internal/store"
)

const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, adventure.ErrInvalidState),
		errors.Is(err, adventure.ErrNotStarted):
		return http.StatusConflict
	case errors.Is(err, interaction.ErrMalformed),
		errors.Is(err, adventure.ErrEmptyAdventure),
		errors.Is(err, adventure.ErrTypeMismatch),
		errors.Is(err, quiz.ErrEmptyQuiz),
		errors.Is(err, quiz.ErrMalformed),
		errors.Is(err, lesson.ErrMalformed),
		errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, log *logger.Logger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		http.Error(w, "internal error", code)
		return
	}
	http.Error(w, err.Error(), code)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "body too large or unreadable", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return b, true
}

func learnerView(r *http.Request) bool { return r.URL.Query().Get("view") == "learner" }
