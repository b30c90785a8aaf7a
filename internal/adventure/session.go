package adventure

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sovereign-school/interactive-core/internal/grading"
	"github.com/sovereign-school/interactive-core/internal/interaction"
)

// Session walks one learner through one adventure. A Session is not safe for
// concurrent use; hosts serialize calls per (learner, module).
type Session struct {
	grader  grading.Grader
	now     func() time.Time
	adv     Adventure
	state   AttemptState
	history *HistoryEntry
}

type SessionOption func(*Session)

func WithGrader(g grading.Grader) SessionOption { return func(s *Session) { s.grader = g } }
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}
func WithLearner(id string) SessionOption { return func(s *Session) { s.state.LearnerID = id } }

func NewSession(moduleID string, opts ...SessionOption) *Session {
	s := &Session{
		grader: grading.NewDefaultGrader(),
		now:    time.Now,
		state:  AttemptState{ModuleID: moduleID, Status: StatusNotStarted},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Outcome is what a single submission produced.
type Outcome struct {
	Stage        int           `json:"stage"`
	Correct      bool          `json:"correct"`
	Feedback     string        `json:"feedback,omitempty"`
	AttemptsUsed int           `json:"attemptsUsed"`
	Completed    bool          `json:"completed"`
	NextStage    *int          `json:"nextStage,omitempty"`
	History      *HistoryEntry `json:"history,omitempty"`
}

// Start moves NotStarted to InProgress at the first node.
func (s *Session) Start(adv Adventure) error {
	if s.state.Status != StatusNotStarted {
		return fmt.Errorf("%w: start while %s", ErrInvalidState, s.state.Status)
	}
	if err := adv.Validate(); err != nil {
		return err
	}
	results := make([]NodeResult, len(adv.Nodes))
	for i, n := range adv.Nodes {
		results[i] = NodeResult{Stage: n.Stage}
	}
	s.adv = adv
	s.state.Status = StatusInProgress
	s.state.CurrentStageIndex = 0
	s.state.NodeState = NodeUnanswered
	s.state.Results = results
	s.state.StartedAt = s.now().UTC()
	return nil
}

// Submit grades ans against the active node. A correct answer advances to the next
// node, or completes the adventure on the last one. An incorrect answer keeps the
// learner on the node and returns its feedback. Mismatched answer kinds are
// rejected without touching the attempt.
func (s *Session) Submit(ctx context.Context, ans interaction.Answer) (Outcome, error) {
	switch s.state.Status {
	case StatusNotStarted:
		return Outcome{}, ErrNotStarted
	case StatusCompleted:
		return Outcome{}, fmt.Errorf("%w: adventure already completed", ErrInvalidState)
	}
	idx := s.state.CurrentStageIndex
	node := s.adv.Nodes[idx]
	res, err := s.grader.Grade(ctx, node.Interaction, ans)
	if err != nil {
		return Outcome{}, err
	}

	r := &s.state.Results[idx]
	r.AttemptsUsed++
	out := Outcome{Stage: node.Stage, Correct: res.Correct, Feedback: res.Feedback, AttemptsUsed: r.AttemptsUsed}
	if !res.Correct {
		s.state.NodeState = NodeIncorrectRetry
		return out, nil
	}
	r.Correct = true
	r.FirstTry = r.AttemptsUsed == 1
	s.state.CurrentStageIndex++

	if s.state.CurrentStageIndex < len(s.adv.Nodes) {
		s.state.NodeState = NodeUnanswered
		next := s.adv.Nodes[s.state.CurrentStageIndex].Stage
		out.NextStage = &next
		return out, nil
	}

	s.state.Status = StatusCompleted
	s.state.NodeState = NodeCorrect
	s.state.CompletedAt = s.now().UTC()
	first, done := Scores(s.state.Results)
	s.history = &HistoryEntry{
		ModuleID:         s.state.ModuleID,
		LearnerID:        s.state.LearnerID,
		Title:            s.adv.Title,
		CompletedAt:      s.state.CompletedAt,
		Score:            first,
		FirstTryAccuracy: first,
		CompletionRate:   done,
	}
	h := *s.history
	out.Completed = true
	out.History = &h
	return out, nil
}

// CurrentNode returns the node awaiting an answer.
func (s *Session) CurrentNode() (Node, error) {
	switch s.state.Status {
	case StatusNotStarted:
		return Node{}, ErrNotStarted
	case StatusCompleted:
		return Node{}, fmt.Errorf("%w: adventure already completed", ErrInvalidState)
	}
	return s.adv.Nodes[s.state.CurrentStageIndex], nil
}

// State returns a copy of the attempt state.
func (s *Session) State() AttemptState {
	st := s.state
	st.Results = append([]NodeResult(nil), s.state.Results...)
	return st
}

func (s *Session) Adventure() Adventure { return s.adv }

// History returns the completion record, or false while the adventure is unfinished.
func (s *Session) History() (HistoryEntry, bool) {
	if s.history == nil {
		return HistoryEntry{}, false
	}
	return *s.history, true
}

// Scores returns first-try accuracy and completion rate as rounded percentages.
func Scores(results []NodeResult) (firstTry, completion int) {
	if len(results) == 0 {
		return 0, 0
	}
	var ft, done int
	for _, r := range results {
		if r.FirstTry {
			ft++
		}
		if r.Correct {
			done++
		}
	}
	return percent(ft, len(results)), percent(done, len(results))
}

func percent(n, total int) int {
	p := int(math.Round(float64(n) * 100 / float64(total)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
