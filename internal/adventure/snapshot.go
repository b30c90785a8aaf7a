package adventure

import (
	"fmt"
	"strings"

	"github.com/sovereign-school/interactive-core/internal/content"
)

// Snapshot is the persisted form of an in-flight or finished session.
type Snapshot struct {
	Adventure Adventure     `json:"adventure"`
	State     AttemptState  `json:"state"`
	History   *HistoryEntry `json:"history,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{Adventure: s.adv, State: s.State()}
	if s.history != nil {
		h := *s.history
		snap.History = &h
	}
	return snap
}

// Restore rebuilds a session from a snapshot after checking that its state is
// consistent with the adventure it carries.
func Restore(snap Snapshot, opts ...SessionOption) (*Session, error) {
	s := NewSession(snap.State.ModuleID, opts...)
	st := snap.State
	switch st.Status {
	case StatusNotStarted:
		s.state.LearnerID = st.LearnerID
		return s, nil
	case StatusInProgress, StatusCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidState, st.Status)
	}
	if err := snap.Adventure.Validate(); err != nil {
		return nil, err
	}
	n := len(snap.Adventure.Nodes)
	if len(st.Results) != n {
		return nil, fmt.Errorf("%w: %d results for %d nodes", ErrInvalidState, len(st.Results), n)
	}
	if st.CurrentStageIndex < 0 || st.CurrentStageIndex > n {
		return nil, fmt.Errorf("%w: stage index %d out of range", ErrInvalidState, st.CurrentStageIndex)
	}
	if (st.Status == StatusCompleted) != (st.CurrentStageIndex == n) {
		return nil, fmt.Errorf("%w: status %s at stage index %d", ErrInvalidState, st.Status, st.CurrentStageIndex)
	}
	for i, r := range st.Results {
		if r.Correct != (i < st.CurrentStageIndex) {
			return nil, fmt.Errorf("%w: result %d disagrees with stage index", ErrInvalidState, i)
		}
	}
	s.adv = snap.Adventure
	s.state = st
	s.state.Results = append([]NodeResult(nil), st.Results...)
	if snap.History != nil {
		h := *snap.History
		s.history = &h
	}
	return s, nil
}

// FromSegments builds an adventure from parsed content. Each interactive segment
// becomes a node, and the text preceding it becomes that node's scene. Trailing text
// is appended to the last scene.
func FromSegments(title string, segs []content.Segment) (Adventure, error) {
	adv := Adventure{Title: title}
	var scene []string
	for _, seg := range segs {
		if t, ok := seg.(content.Text); ok {
			if v := strings.TrimSpace(t.Value); v != "" {
				scene = append(scene, v)
			}
			continue
		}
		it, ok := content.ToInteraction(seg)
		if !ok {
			continue
		}
		adv.Nodes = append(adv.Nodes, Node{
			Stage:            len(adv.Nodes) + 1,
			SceneDescription: strings.Join(scene, "\n\n"),
			Interaction:      it,
		})
		scene = nil
	}
	if len(adv.Nodes) == 0 {
		return Adventure{}, ErrEmptyAdventure
	}
	if len(scene) > 0 {
		last := &adv.Nodes[len(adv.Nodes)-1]
		last.SceneDescription = strings.TrimSpace(last.SceneDescription + "\n\n" + strings.Join(scene, "\n\n"))
	}
	if err := adv.Validate(); err != nil {
		return Adventure{}, err
	}
	return adv, nil
}
