package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sovereign-school/interactive-core/internal/adventure"
	"github.com/sovereign-school/interactive-core/internal/content"
	"github.com/sovereign-school/interactive-core/internal/interaction"
	"github.com/sovereign-school/interactive-core/internal/logger"
	"github.com/sovereign-school/interactive-core/internal/rbac"
	"github.com/sovereign-school/interactive-core/internal/sessions"
	"github.com/sovereign-school/interactive-core/internal/store"
)

type nodeView struct {
	Stage             int              `json:"stage"`
	SceneDescription  string           `json:"sceneDescription"`
	SceneVisualPrompt string           `json:"sceneVisualPrompt,omitempty"`
	Interaction       interaction.View `json:"interaction"`
}

func viewNode(n adventure.Node) nodeView {
	return nodeView{
		Stage:             n.Stage,
		SceneDescription:  n.SceneDescription,
		SceneVisualPrompt: n.SceneVisualPrompt,
		Interaction:       interaction.LearnerView(n.Interaction),
	}
}

type adventureView struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Topic                 string     `json:"topic,omitempty"`
	LearningObjectives    []string   `json:"learningObjectives,omitempty"`
	FinalAssessmentPrompt string     `json:"finalAssessmentQuestion,omitempty"`
	Nodes                 []nodeView `json:"nodes"`
}

// POST /adventures
// body: an InteractiveAdventure {"title","nodes"}, or {"title","source"} with markup.
// Either form may carry "id" and "module".
func CreateAdventureHandler(st store.Store, p *content.Parser, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := readBody(w, r)
		if !ok {
			return
		}
		var req struct {
			ID     string            `json:"id"`
			Title  string            `json:"title"`
			Source string            `json:"source"`
			Module *adventure.Module `json:"module"`
		}
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var (
			adv adventure.Adventure
			err error
		)
		if strings.TrimSpace(req.Source) != "" {
			adv, err = adventure.FromSegments(req.Title, p.Parse(req.Source))
		} else {
			adv, err = adventure.Decode(b)
		}
		if err != nil {
			writeError(w, log, err)
			return
		}
		id := req.ID
		if id == "" && req.Module != nil {
			id = req.Module.ID
		}
		if id == "" {
			id = uuid.NewString()
		}
		if req.Module != nil {
			req.Module.ID = id
			if req.Module.TeacherID == "" {
				req.Module.TeacherID = rbac.SubjectFromContext(r.Context())
			}
		}
		if err := st.PutAdventure(r.Context(), store.AdventureRecord{ID: id, Module: req.Module, Adventure: adv}); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id, "title": adv.Title, "stages": len(adv.Nodes)})
	}
}

// GET /adventures/{id}   learner view; ?view=full for authors.
func GetAdventureHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := st.GetAdventure(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if r.URL.Query().Get("view") == "full" && rbac.Allowed(r, rbac.PermAdventureCreate, "") {
			writeJSON(w, http.StatusOK, rec)
			return
		}
		v := adventureView{ID: rec.ID, Title: rec.Adventure.Title, Nodes: make([]nodeView, len(rec.Adventure.Nodes))}
		for i, n := range rec.Adventure.Nodes {
			v.Nodes[i] = viewNode(n)
		}
		if m := rec.Module; m != nil {
			v.Topic = m.Topic
			v.LearningObjectives = m.LearningObjectives
			v.FinalAssessmentPrompt = m.FinalAssessmentQuestion.Question
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// GET /adventures?q=&limit=&offset=
func ListAdventuresHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		list, err := st.ListAdventures(r.Context(), store.ListOpts{Q: q.Get("q"), Limit: limit, Offset: offset})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /adventures/{id}/final-answer   {"answer": "..."}
func FinalAnswerHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answer string `json:"answer"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		rec, err := st.GetAdventure(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		if rec.Module == nil || strings.TrimSpace(rec.Module.FinalAssessmentQuestion.Answer) == "" {
			http.Error(w, "adventure has no final assessment", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"correct": rec.Module.CheckFinalAnswer(req.Answer)})
	}
}

type sessionView struct {
	ID          string                  `json:"id"`
	State       adventure.AttemptState  `json:"state"`
	CurrentNode *nodeView               `json:"currentNode,omitempty"`
	History     *adventure.HistoryEntry `json:"history,omitempty"`
}

func viewSession(rec sessions.Record) sessionView {
	snap := rec.Snapshot
	v := sessionView{ID: rec.ID, State: snap.State, History: snap.History}
	if snap.State.Status == adventure.StatusInProgress {
		if i := snap.State.CurrentStageIndex; i >= 0 && i < len(snap.Adventure.Nodes) {
			n := viewNode(snap.Adventure.Nodes[i])
			v.CurrentNode = &n
		}
	}
	return v
}

// POST /adventures/{id}/sessions
func StartSessionHandler(st store.Store, mgr *sessions.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := st.GetAdventure(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		sess, err := mgr.Start(r.Context(), rbac.SubjectFromContext(r.Context()), rec.ID, rec.Adventure)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewSession(sess))
	}
}

// GET /sessions/{id}
func GetSessionHandler(mgr *sessions.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := mgr.Get(r.Context(), chi.URLParam(r, "id"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, viewSession(rec))
	}
}

// POST /sessions/{id}/answers   body: {"type": "<KIND>", ...answer fields}
func SubmitAnswerHandler(mgr *sessions.Manager, log *logger.Logger) http.HandlerFunc {
	type response struct {
		Outcome adventure.Outcome `json:"outcome"`
		Session sessionView       `json:"session"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := readBody(w, r)
		if !ok {
			return
		}
		ans, err := interaction.DecodeAnswer(b)
		if err != nil {
			writeError(w, log, err)
			return
		}
		out, rec, err := mgr.Submit(r.Context(), chi.URLParam(r, "id"), rbac.SubjectFromContext(r.Context()), ans)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, response{Outcome: out, Session: viewSession(rec)})
	}
}

// DELETE /sessions/{id}
func AbandonSessionHandler(mgr *sessions.Manager, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.Abandon(r.Context(), chi.URLParam(r, "id"), rbac.SubjectFromContext(r.Context())); err != nil {
			writeError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /history?user_id=   defaults to the caller.
func HistoryHandler(st store.Store, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user_id")
		if user == "" {
			user = rbac.SubjectFromContext(r.Context())
		}
		if !rbac.Allowed(r, rbac.PermHistoryViewAll, user) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		list, err := st.ListHistory(r.Context(), user)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
