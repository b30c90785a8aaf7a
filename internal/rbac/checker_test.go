package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerWildcards(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", PermAdventurePlay, true},
		{"student", PermAdventureCreate, false},
		{"student", PermHistoryViewAll, false},
		{"teacher", PermAdventureCreate, true},
		{"teacher", PermQuizResultsAll, true},
		{"teacher", PermEventsView, false},
		{"admin", PermEventsView, true},
		{"parent", PermQuizAttempt, false},
		{"", PermContentParse, false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestRequireAndAllowed(t *testing.T) {
	h := Require(PermQuizCreate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for role, want := range map[string]int{"teacher": 200, "student": 403, "": 403} {
		req := httptest.NewRequest(http.MethodPost, "/quizzes", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: status %d, want %d", role, rec.Code, want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req = req.WithContext(WithSubject(WithRole(req.Context(), "student"), "u1"))
	if !Allowed(req, PermHistoryViewAll, "u1") {
		t.Error("owner denied")
	}
	if Allowed(req, PermHistoryViewAll, "u2") {
		t.Error("student allowed to read another learner")
	}
}
