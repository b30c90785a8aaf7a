package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/sovereign-school/interactive-core/internal/auth/middleware"
	"github.com/sovereign-school/interactive-core/internal/content"
	"github.com/sovereign-school/interactive-core/internal/logger"
	"github.com/sovereign-school/interactive-core/internal/quiz"
	"github.com/sovereign-school/interactive-core/internal/rbac"
	"github.com/sovereign-school/interactive-core/internal/sessions"
	"github.com/sovereign-school/interactive-core/internal/storage"
	"github.com/sovereign-school/interactive-core/internal/store"
)

type Deps struct {
	Auth          *auth.AuthService
	Credentials   auth.CredentialProvider // nil disables /auth/login
	GuestAuth     bool
	SecureCookies bool

	Store    store.Store
	Sessions *sessions.Manager
	Blobs    storage.BlobStore
	Parser   *content.Parser
	Quizzes  *quiz.Grader
	Log      *logger.Logger
}

// Mount registers the API on r. Everything except login requires a bearer token.
func Mount(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Parser == nil {
		d.Parser = content.NewParser(d.Log)
	}
	if d.Quizzes == nil {
		d.Quizzes = quiz.NewGrader()
	}
	log := d.Log

	if d.Credentials != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Credentials))
	}
	if d.GuestAuth {
		r.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, d.SecureCookies))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermContentParse)).
			Post("/content/parse", ParseContentHandler(d.Parser))
		pr.With(rbac.Require(rbac.PermLessonParse)).
			Post("/lessons/parse", ParseLessonHandler(d.Parser, log))
		if d.Blobs != nil {
			pr.Route("/sources", func(sr chi.Router) {
				MountSources(sr, d.Blobs, d.Parser, log)
			})
		}

		// Adventures
		pr.With(rbac.Require(rbac.PermAdventureCreate)).
			Post("/adventures", CreateAdventureHandler(d.Store, d.Parser, log))
		pr.With(rbac.Require(rbac.PermAdventureView)).
			Get("/adventures", ListAdventuresHandler(d.Store, log))
		pr.With(rbac.Require(rbac.PermAdventureView)).
			Get("/adventures/{id}", GetAdventureHandler(d.Store, log))
		pr.With(rbac.Require(rbac.PermAdventurePlay)).
			Post("/adventures/{id}/final-answer", FinalAnswerHandler(d.Store, log))
		pr.With(rbac.Require(rbac.PermAdventurePlay)).
			Post("/adventures/{id}/sessions", StartSessionHandler(d.Store, d.Sessions, log))
		pr.With(rbac.Require(rbac.PermAdventurePlay)).
			Get("/sessions/{id}", GetSessionHandler(d.Sessions, log))
		pr.With(rbac.Require(rbac.PermAdventurePlay)).
			Post("/sessions/{id}/answers", SubmitAnswerHandler(d.Sessions, log))
		pr.With(rbac.Require(rbac.PermAdventurePlay)).
			Delete("/sessions/{id}", AbandonSessionHandler(d.Sessions, log))
		pr.With(rbac.RequireAny(rbac.PermHistoryViewOwn, rbac.PermHistoryViewAll)).
			Get("/history", HistoryHandler(d.Store, log))

		// Quizzes
		pr.With(rbac.Require(rbac.PermQuizCreate)).
			Post("/quizzes", CreateQuizHandler(d.Store, log))
		pr.With(rbac.Require(rbac.PermQuizView)).
			Get("/quizzes/{id}", GetQuizHandler(d.Store, log))
		pr.With(rbac.Require(rbac.PermQuizAttempt)).
			Post("/quizzes/{id}/attempts", SubmitQuizHandler(d.Store, d.Quizzes, log))
		pr.With(rbac.RequireAny(rbac.PermQuizResultsOwn, rbac.PermQuizResultsAll)).
			Get("/quiz-attempts", ListQuizAttemptsHandler(d.Store, log))
		pr.With(rbac.RequireAny(rbac.PermQuizResultsOwn, rbac.PermQuizResultsAll)).
			Get("/quiz-attempts/{id}", GetQuizAttemptHandler(d.Store, log))

		pr.With(rbac.Require(rbac.PermEventsView)).
			Get("/events", ListEventsHandler(d.Store, log))
	})
}

// Health answers liveness; ready reports whether dependencies respond.
func Health(ready func(r *http.Request) error) (healthz, readyz http.HandlerFunc) {
	healthz = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	readyz = func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
	return healthz, readyz
}
