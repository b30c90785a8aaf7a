package adventure

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sovereign-school/interactive-core/internal/grading"
	"github.com/sovereign-school/interactive-core/internal/interaction"
)

var (
	ErrEmptyAdventure = errors.New("adventure has no nodes")
	ErrNotStarted     = errors.New("adventure not started")
	ErrInvalidState   = errors.New("invalid adventure state")
	ErrTypeMismatch   = grading.ErrTypeMismatch
	ErrMalformed      = interaction.ErrMalformed
)

type Node struct {
	Stage             int                     `json:"stage"`
	SceneDescription  string                  `json:"sceneDescription"`
	SceneVisualPrompt string                  `json:"sceneVisualPrompt"`
	Interaction       interaction.Interaction `json:"interaction"`
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var aux struct {
		Stage             *int            `json:"stage"`
		SceneDescription  string          `json:"sceneDescription"`
		SceneVisualPrompt string          `json:"sceneVisualPrompt"`
		Interaction       json.RawMessage `json:"interaction"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return fmt.Errorf("%w: node: %v", ErrMalformed, err)
	}
	if aux.Stage == nil {
		return fmt.Errorf("%w: node: missing stage", ErrMalformed)
	}
	if len(aux.Interaction) == 0 || string(aux.Interaction) == "null" {
		return fmt.Errorf("%w: node %d: missing interaction", ErrMalformed, *aux.Stage)
	}
	it, err := interaction.Decode(aux.Interaction)
	if err != nil {
		return fmt.Errorf("node %d: %w", *aux.Stage, err)
	}
	*n = Node{
		Stage:             *aux.Stage,
		SceneDescription:  aux.SceneDescription,
		SceneVisualPrompt: aux.SceneVisualPrompt,
		Interaction:       it,
	}
	return nil
}

// Adventure is an ordered sequence of scene nodes. It is read-only once built.
type Adventure struct {
	Title string `json:"title"`
	Nodes []Node `json:"nodes"`
}

// Decode parses an InteractiveAdventure record and validates it. Nodes come back
// ordered by stage.
func Decode(b []byte) (Adventure, error) {
	var a Adventure
	if err := json.Unmarshal(b, &a); err != nil {
		if errors.Is(err, ErrMalformed) {
			return Adventure{}, err
		}
		return Adventure{}, fmt.Errorf("%w: adventure: %v", ErrMalformed, err)
	}
	sort.SliceStable(a.Nodes, func(i, j int) bool { return a.Nodes[i].Stage < a.Nodes[j].Stage })
	if err := a.Validate(); err != nil {
		return Adventure{}, err
	}
	return a, nil
}

// Validate checks that the adventure has nodes, stages are non-negative and strictly
// increasing, and every interaction is well-formed.
func (a Adventure) Validate() error {
	if len(a.Nodes) == 0 {
		return ErrEmptyAdventure
	}
	prev := -1
	for i, n := range a.Nodes {
		if n.Stage < 0 {
			return fmt.Errorf("%w: node %d has negative stage %d", ErrMalformed, i, n.Stage)
		}
		if n.Stage <= prev {
			return fmt.Errorf("%w: node %d: stage %d is not after %d", ErrMalformed, i, n.Stage, prev)
		}
		prev = n.Stage
		if n.Interaction == nil {
			return fmt.Errorf("%w: node %d has no interaction", ErrMalformed, i)
		}
		if err := n.Interaction.Validate(); err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
	}
	return nil
}

// FinalAssessment is the module's closing free-text question.
type FinalAssessment struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Module is the authoring record an adventure is generated from.
type Module struct {
	ID                      string          `json:"id"`
	Topic                   string          `json:"topic"`
	Prompt                  string          `json:"prompt"`
	SourceText              string          `json:"sourceText,omitempty"`
	AgeGroup                string          `json:"ageGroup"`
	Stages                  int             `json:"stages"`
	LearningObjectives      []string        `json:"learningObjectives"`
	FinalAssessmentQuestion FinalAssessment `json:"finalAssessmentQuestion"`
	TeacherID               string          `json:"teacherId,omitempty"`
	TeacherName             string          `json:"teacherName,omitempty"`
}

// CheckFinalAnswer grades the final assessment answer; comparison is trimmed and
// case-insensitive. A module without a final answer accepts nothing.
func (m Module) CheckFinalAnswer(answer string) bool {
	want := strings.TrimSpace(m.FinalAssessmentQuestion.Answer)
	if want == "" {
		return false
	}
	return grading.Equal(want, answer, false)
}

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// NodeState is the learner's standing on the active node.
type NodeState string

const (
	NodeUnanswered     NodeState = "unanswered"
	NodeCorrect        NodeState = "correct"
	NodeIncorrectRetry NodeState = "incorrect_retry"
)

type NodeResult struct {
	Stage        int  `json:"stage"`
	Correct      bool `json:"correct"`
	AttemptsUsed int  `json:"attemptsUsed"`
	// FirstTry is set when the node was answered correctly on its first attempt.
	FirstTry bool `json:"firstTry"`
}

type AttemptState struct {
	ModuleID          string       `json:"moduleId"`
	LearnerID         string       `json:"learnerId,omitempty"`
	Status            Status       `json:"status"`
	CurrentStageIndex int          `json:"currentStageIndex"`
	NodeState         NodeState    `json:"nodeState,omitempty"`
	Results           []NodeResult `json:"results"`
	StartedAt         time.Time    `json:"startedAt,omitempty"`
	CompletedAt       time.Time    `json:"completedAt,omitempty"`
}

// HistoryEntry summarizes a completed play-through. Score is the first-try accuracy;
// both metrics are carried so consumers need not guess.
type HistoryEntry struct {
	// SessionID identifies the run; a store keeps one entry per non-empty id.
	SessionID        string    `json:"sessionId,omitempty"`
	ModuleID         string    `json:"moduleId"`
	LearnerID        string    `json:"learnerId,omitempty"`
	Title            string    `json:"title"`
	CompletedAt      time.Time `json:"completedAt"`
	Score            int       `json:"score"`
	FirstTryAccuracy int       `json:"firstTryAccuracy"`
	CompletionRate   int       `json:"completionRate"`
}
