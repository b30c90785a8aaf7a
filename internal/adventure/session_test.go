package adventure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sovereign-school/interactive-core/internal/content"
	"github.com/sovereign-school/interactive-core/internal/interaction"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func threeNodes() Adventure {
	return Adventure{
		Title: "Journey to the Capital",
		Nodes: []Node{
			{Stage: 1, SceneDescription: "A fork in the road.", Interaction: &interaction.Choice{Choices: []interaction.ChoiceOption{
				{Text: "Paris", IsCorrect: true, Feedback: "Right, onward to Paris."},
				{Text: "London", Feedback: "London is across the channel."},
			}}},
			{Stage: 2, Interaction: &interaction.Ordering{OrderingItems: []string{"A", "B", "C"}, Feedback: "Think about the sequence."}},
			{Stage: 3, Interaction: &interaction.FillBlank{SentenceWithAnswer: "Plants use {photosynthesis} to make food."}},
		},
	}
}

func TestThreeNodeAdventureWithOneRetry(t *testing.T) {
	ctx := context.Background()
	s := NewSession("mod-1", WithClock(clock), WithLearner("student-7"))
	if err := s.Start(threeNodes()); err != nil {
		t.Fatalf("start: %v", err)
	}

	out, err := s.Submit(ctx, interaction.ChoiceAnswer{Text: "London"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Correct || out.Feedback != "London is across the channel." || out.AttemptsUsed != 1 {
		t.Fatalf("wrong outcome: %+v", out)
	}
	if st := s.State(); st.CurrentStageIndex != 0 || st.NodeState != NodeIncorrectRetry {
		t.Fatalf("state after miss: %+v", st)
	}

	steps := []interaction.Answer{
		interaction.ChoiceAnswer{Text: "Paris"},
		interaction.OrderingAnswer{Items: []string{"A", "B", "C"}},
		interaction.FillBlankAnswer{Text: "Photosynthesis"},
	}
	for i, a := range steps {
		out, err = s.Submit(ctx, a)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !out.Correct {
			t.Fatalf("step %d graded incorrect", i)
		}
	}
	if !out.Completed || out.History == nil {
		t.Fatalf("expected completion, got %+v", out)
	}
	st := s.State()
	if st.Status != StatusCompleted || st.CurrentStageIndex != 3 || !st.CompletedAt.Equal(fixedNow) {
		t.Fatalf("final state: %+v", st)
	}
	if st.Results[0].AttemptsUsed != 2 || st.Results[0].FirstTry {
		t.Fatalf("node 1 result: %+v", st.Results[0])
	}
	h, ok := s.History()
	if !ok {
		t.Fatal("no history entry")
	}
	if h.CompletionRate != 100 || h.FirstTryAccuracy != 67 || h.Score != h.FirstTryAccuracy {
		t.Fatalf("history scores: %+v", h)
	}
	if h.ModuleID != "mod-1" || h.LearnerID != "student-7" || h.Title != "Journey to the Capital" {
		t.Fatalf("history identity: %+v", h)
	}
}

func TestOrderingNode(t *testing.T) {
	adv := Adventure{Nodes: []Node{{Stage: 0, Interaction: &interaction.Ordering{OrderingItems: []string{"A", "B", "C"}}}}}
	s := NewSession("m")
	if err := s.Start(adv); err != nil {
		t.Fatal(err)
	}
	out, err := s.Submit(context.Background(), interaction.OrderingAnswer{Items: []string{"A", "C", "B"}})
	if err != nil || out.Correct {
		t.Fatalf("A,C,B: %+v %v", out, err)
	}
	out, err = s.Submit(context.Background(), interaction.OrderingAnswer{Items: []string{"A", "B", "C"}})
	if err != nil || !out.Correct || !out.Completed {
		t.Fatalf("A,B,C: %+v %v", out, err)
	}
}

func TestStartEmptyAdventure(t *testing.T) {
	s := NewSession("m")
	if err := s.Start(Adventure{Title: "nothing"}); !errors.Is(err, ErrEmptyAdventure) {
		t.Fatalf("want ErrEmptyAdventure, got %v", err)
	}
	st := s.State()
	if st.Status != StatusNotStarted || st.Results != nil {
		t.Fatalf("state changed: %+v", st)
	}
	if _, err := s.Submit(context.Background(), interaction.ChoiceAnswer{Text: "x"}); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("want ErrNotStarted, got %v", err)
	}
}

func TestStartTwice(t *testing.T) {
	s := NewSession("m")
	if err := s.Start(threeNodes()); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(threeNodes()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("want ErrInvalidState, got %v", err)
	}
}

func TestTypeMismatchLeavesStateAlone(t *testing.T) {
	s := NewSession("m")
	if err := s.Start(threeNodes()); err != nil {
		t.Fatal(err)
	}
	before := s.State()
	_, err := s.Submit(context.Background(), interaction.OrderingAnswer{Items: []string{"A"}})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("want ErrTypeMismatch, got %v", err)
	}
	after := s.State()
	if after.Results[0].AttemptsUsed != before.Results[0].AttemptsUsed || after.NodeState != before.NodeState {
		t.Fatalf("state mutated: %+v -> %+v", before, after)
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewSession("m")
	adv := Adventure{Nodes: []Node{{Stage: 1, Interaction: &interaction.FindMistake{Statement: "2+2=5", Correction: "2+2=4"}}}}
	if err := s.Start(adv); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(ctx, interaction.FindMistakeAnswer{Correction: "2+2=4"}); err != nil {
		t.Fatal(err)
	}
	done := s.State()
	h1, _ := s.History()
	for i := 0; i < 3; i++ {
		if _, err := s.Submit(ctx, interaction.FindMistakeAnswer{Correction: "2+2=4"}); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("want ErrInvalidState, got %v", err)
		}
	}
	if _, err := s.CurrentNode(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("current node after completion: %v", err)
	}
	again := s.State()
	h2, _ := s.History()
	if again.Results[0] != done.Results[0] || h1 != h2 {
		t.Fatal("terminal state was mutated")
	}
}

func TestProgressionIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewSession("m")
	if err := s.Start(threeNodes()); err != nil {
		t.Fatal(err)
	}
	answers := []interaction.Answer{
		interaction.ChoiceAnswer{Text: "London"},
		interaction.ChoiceAnswer{Text: "Paris"},
		interaction.OrderingAnswer{Items: []string{"C", "B", "A"}},
		interaction.OrderingAnswer{Items: []string{"B", "A", "C"}},
		interaction.OrderingAnswer{Items: []string{"A", "B", "C"}},
		interaction.FillBlankAnswer{Text: "chlorophyll"},
		interaction.FillBlankAnswer{Text: "photosynthesis"},
	}
	last := 0
	for i, a := range answers {
		if _, err := s.Submit(ctx, a); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		st := s.State()
		if st.CurrentStageIndex < last {
			t.Fatalf("stage index went back from %d to %d", last, st.CurrentStageIndex)
		}
		last = st.CurrentStageIndex
		allCorrect := true
		for _, r := range st.Results {
			allCorrect = allCorrect && r.Correct
		}
		if (st.Status == StatusCompleted) != allCorrect {
			t.Fatalf("completed=%v but all correct=%v", st.Status == StatusCompleted, allCorrect)
		}
	}
	h, _ := s.History()
	if h.FirstTryAccuracy != 0 || h.CompletionRate != 100 {
		t.Fatalf("scores: %+v", h)
	}
}

func TestScoresStayInBounds(t *testing.T) {
	cases := []struct {
		results        []NodeResult
		first, overall int
	}{
		{nil, 0, 0},
		{[]NodeResult{{Correct: true, FirstTry: true}}, 100, 100},
		{[]NodeResult{{Correct: true}, {Correct: true, FirstTry: true}, {}}, 33, 67},
		{[]NodeResult{{}, {}}, 0, 0},
	}
	for _, tc := range cases {
		first, overall := Scores(tc.results)
		if first != tc.first || overall != tc.overall {
			t.Errorf("Scores(%+v) = %d, %d; want %d, %d", tc.results, first, overall, tc.first, tc.overall)
		}
		if first < 0 || first > 100 || overall < 0 || overall > 100 {
			t.Errorf("out of bounds: %d %d", first, overall)
		}
	}
}

func TestDecodeSortsAndValidates(t *testing.T) {
	raw := `{"title":"Forest","nodes":[
		{"stage":2,"sceneDescription":"b","sceneVisualPrompt":"","interaction":{"type":"ORDERING","instruction":"order","orderingItems":["x","y"],"feedback":""}},
		{"stage":1,"sceneDescription":"a","sceneVisualPrompt":"","interaction":{"type":"CHOICE","choices":[{"text":"yes","isCorrect":true,"feedback":""},{"text":"no","isCorrect":false,"feedback":""}]}}
	]}`
	adv, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if adv.Nodes[0].Stage != 1 || adv.Nodes[0].Interaction.Kind() != interaction.KindChoice {
		t.Fatalf("not sorted: %+v", adv.Nodes)
	}

	bad := []string{
		`{"title":"x","nodes":[]}`,
		`{"title":"x","nodes":[{"stage":1,"interaction":{"type":"CHOICE","choices":[]}}]}`,
		`{"title":"x","nodes":[{"stage":1}]}`,
		`{"title":"x","nodes":[{"stage":-1,"interaction":{"type":"ORDERING","orderingItems":["a","b"]}}]}`,
		`{"title":"x","nodes":[{"stage":1,"interaction":{"type":"ORDERING","orderingItems":["a","b"]}},{"stage":1,"interaction":{"type":"ORDERING","orderingItems":["a","b"]}}]}`,
		`{"title":"x","nodes":[{"stage":1,"interaction":{"type":"SPIN_THE_WHEEL"}}]}`,
	}
	for _, b := range bad {
		if _, err := Decode([]byte(b)); err == nil {
			t.Errorf("expected error for %s", b)
		}
	}
	if _, err := Decode([]byte(bad[0])); !errors.Is(err, ErrEmptyAdventure) {
		t.Errorf("empty nodes: %v", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	s := NewSession("mod-9", WithClock(clock), WithLearner("l1"))
	if err := s.Start(threeNodes()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Submit(ctx, interaction.ChoiceAnswer{Text: "Paris"}); err != nil {
		t.Fatal(err)
	}

	b, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	r, err := Restore(snap, WithClock(clock))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	n, err := r.CurrentNode()
	if err != nil || n.Stage != 2 {
		t.Fatalf("current node: %+v %v", n, err)
	}
	if st := r.State(); st.LearnerID != "l1" || st.Results[0].Correct != true {
		t.Fatalf("restored state: %+v", st)
	}

	snap.State.CurrentStageIndex = 3
	if _, err := Restore(snap); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("inconsistent snapshot accepted: %v", err)
	}
}

func TestFromSegments(t *testing.T) {
	segs := content.Parse("You wake in a forest.\nPlants use {photosynthesis} to make food.\nA river blocks the path.\nQ: Cross how?\nA) Swim\nB) Bridge *\nThe end.")
	adv, err := FromSegments("Forest", segs)
	if err != nil {
		t.Fatalf("from segments: %v", err)
	}
	if len(adv.Nodes) != 2 {
		t.Fatalf("want 2 nodes, got %d", len(adv.Nodes))
	}
	if adv.Nodes[0].SceneDescription != "You wake in a forest." {
		t.Errorf("scene 1: %q", adv.Nodes[0].SceneDescription)
	}
	if adv.Nodes[1].SceneDescription != "A river blocks the path.\n\nThe end." {
		t.Errorf("scene 2: %q", adv.Nodes[1].SceneDescription)
	}
	if _, err := FromSegments("empty", content.Parse("just prose")); !errors.Is(err, ErrEmptyAdventure) {
		t.Errorf("want ErrEmptyAdventure, got %v", err)
	}
}

func TestCheckFinalAnswer(t *testing.T) {
	m := Module{FinalAssessmentQuestion: FinalAssessment{Question: "What do plants make?", Answer: "Glucose"}}
	if !m.CheckFinalAnswer("  glucose ") {
		t.Error("folded answer rejected")
	}
	if m.CheckFinalAnswer("water") {
		t.Error("wrong answer accepted")
	}
	if (Module{}).CheckFinalAnswer("") {
		t.Error("empty module accepted an answer")
	}
}
