package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sovereign-school/interactive-core/internal/logger"
	"github.com/sovereign-school/interactive-core/internal/quiz"
	"github.com/sovereign-school/interactive-core/internal/rbac"
	"github.com/sovereign-school/interactive-core/internal/store"
)

// POST /quizzes
func CreateQuizHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := readBody(w, r)
		if !ok {
			return
		}
		q, err := quiz.Decode(b)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if err := st.PutQuiz(r.Context(), q); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": q.ID, "questions": len(q.Questions)})
	}
}

// GET /quizzes/{id}   answers are stripped unless the caller can author quizzes.
func GetQuizHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := st.GetQuiz(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if rbac.Allowed(r, rbac.PermQuizCreate, "") && !learnerView(r) {
			writeJSON(w, http.StatusOK, q)
			return
		}
		writeJSON(w, http.StatusOK, q.Public())
	}
}

// POST /quizzes/{id}/attempts   {"answers": {"<questionId>": "<option>"}}
func SubmitQuizHandler(st store.Store, g *quiz.Grader, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers map[string]string `json:"answers"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q, err := st.GetQuiz(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		a, err := g.Grade(q, rbac.SubjectFromContext(r.Context()), req.Answers)
		if err != nil {
			writeError(w, log, err)
			return
		}
		if err := st.SaveQuizAttempt(r.Context(), a); err != nil {
			writeError(w, log, err)
			return
		}
		log.Debug("quiz graded", "quiz_id", q.ID, "attempt_id", a.ID, "score", a.Score)
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /quiz-attempts/{id}
func GetQuizAttemptHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := st.GetQuizAttempt(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if !rbac.Allowed(r, rbac.PermQuizResultsAll, a.StudentID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /quiz-attempts?user_id=
func ListQuizAttemptsHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user_id")
		if user == "" {
			user = rbac.SubjectFromContext(r.Context())
		}
		if !rbac.Allowed(r, rbac.PermQuizResultsAll, user) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		list, err := st.ListQuizAttempts(r.Context(), user)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /events?after=&limit=
func ListEventsHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		evs, err := st.ListEvents(r.Context(), after, limit)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
