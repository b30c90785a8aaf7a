package http

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/sovereign-school/interactive-core/internal/content"
	"github.com/sovereign-school/interactive-core/internal/lesson"
	"github.com/sovereign-school/interactive-core/internal/logger"
	"github.com/sovereign-school/interactive-core/internal/rbac"
)

type segmentsResponse struct {
	Segments []content.Segment `json:"segments"`
}

// segmentsFor redacts answers unless the caller authors content and did not ask for
// the learner view.
func segmentsFor(r *http.Request, segs []content.Segment) segmentsResponse {
	if !rbac.Allowed(r, rbac.PermAdventureCreate, "") || learnerView(r) {
		segs = content.Redact(segs)
	}
	return segmentsResponse{Segments: segs}
}

// POST /content/parse   body: plain text, or {"source": "..."} with a JSON content type.
func ParseContentHandler(p *content.Parser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := readBody(w, r)
		if !ok {
			return
		}
		src := string(b)
		if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
			var req struct {
				Source string `json:"source"`
			}
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			src = req.Source
		}
		writeJSON(w, http.StatusOK, segmentsFor(r, p.Parse(src)))
	}
}

// POST /lessons/parse   body: a generated lesson plan.
func ParseLessonHandler(p *content.Parser, log *logger.Logger) http.HandlerFunc {
	type sectionOut struct {
		Name     string            `json:"name"`
		Segments []content.Segment `json:"segments"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		b, ok := readBody(w, r)
		if !ok {
			return
		}
		plan, err := lesson.Decode(b)
		if err != nil {
			writeError(w, log, err)
			return
		}
		secs := plan.Sections(p)
		out := make([]sectionOut, len(secs))
		for i, s := range secs {
			out[i] = sectionOut{Name: s.Name, Segments: segmentsFor(r, s.Segments).Segments}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"title":        plan.Title,
			"topic":        plan.Topic,
			"totalMinutes": plan.TotalMinutes(),
			"sections":     out,
		})
	}
}
