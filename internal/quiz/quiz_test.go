package quiz

import (
	"errors"
	"testing"
	"time"
)

func sampleQuiz() Quiz {
	return Quiz{
		ID:    "quiz-1",
		Title: "Planets",
		Topic: "Astronomy",
		Questions: []Question{
			{ID: "q1", Question: "Largest planet?", Options: []string{"Jupiter", "Mars"}, CorrectAnswer: "Jupiter"},
			{ID: "q2", Question: "Red planet?", Options: []string{"Venus", "Mars"}, CorrectAnswer: "Mars"},
			{ID: "q3", Question: "Closest to the sun?", Options: []string{"Mercury", "Earth"}, CorrectAnswer: "Mercury"},
			{ID: "q4", Question: "Ringed planet?", Options: []string{"Saturn", "Earth"}, CorrectAnswer: "Saturn"},
		},
	}
}

func TestGradeThreeOfFour(t *testing.T) {
	at := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
	g := NewGrader(WithClock(func() time.Time { return at }), WithIDs(func() string { return "attempt-1" }))
	q := sampleQuiz()

	a, err := g.Grade(q, "student-1", map[string]string{"q1": "Jupiter", "q2": "Mars", "q3": "Mercury"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if a.Score != 75 {
		t.Fatalf("score = %d, want 75", a.Score)
	}
	if a.ID != "attempt-1" || a.Timestamp != "2024-03-02T08:30:00Z" || a.QuizTitle != "Planets" || a.StudentID != "student-1" {
		t.Fatalf("attempt metadata: %+v", a)
	}
	if len(a.Answers) != 4 || a.Answers[3].IsCorrect || a.Answers[3].StudentAnswer != "" {
		t.Fatalf("unanswered question: %+v", a.Answers)
	}
	if q.Questions[0].CorrectAnswer != "Jupiter" {
		t.Fatal("quiz mutated")
	}
}

func TestGradeIsCaseSensitive(t *testing.T) {
	a, err := Grade(sampleQuiz(), "s", map[string]string{"q1": "jupiter", "q2": "Mars ", "q3": "Mercury", "q4": "Saturn"})
	if err != nil {
		t.Fatal(err)
	}
	if a.Score != 50 {
		t.Fatalf("score = %d, want 50", a.Score)
	}
	if a.ID == "" {
		t.Error("attempt id not assigned")
	}
}

func TestGradeRounds(t *testing.T) {
	q := sampleQuiz()
	q.Questions = q.Questions[:3]
	a, _ := Grade(q, "s", map[string]string{"q1": "Jupiter", "q2": "Mars"})
	if a.Score != 67 {
		t.Fatalf("score = %d, want 67", a.Score)
	}
}

func TestValidate(t *testing.T) {
	if _, err := Grade(Quiz{ID: "x"}, "s", nil); !errors.Is(err, ErrEmptyQuiz) {
		t.Fatalf("grade empty: %v", err)
	}
	cases := map[string]string{
		"empty":          `{"id":"x","title":"t","questions":[]}`,
		"answer missing": `{"id":"x","questions":[{"id":"a","question":"?","options":["1","2"],"correctAnswer":"3"}]}`,
		"duplicate id":   `{"id":"x","questions":[{"id":"a","options":["1","2"],"correctAnswer":"1"},{"id":"a","options":["1","2"],"correctAnswer":"2"}]}`,
		"one option":     `{"id":"x","questions":[{"id":"a","options":["1"],"correctAnswer":"1"}]}`,
		"not json":       `{"id":`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(raw)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
	if _, err := Decode([]byte(cases["empty"])); !errors.Is(err, ErrEmptyQuiz) {
		t.Fatalf("want ErrEmptyQuiz, got %v", err)
	}
}

func TestPublicHidesAnswers(t *testing.T) {
	q := sampleQuiz()
	q.SourceText = "secret notes"
	p := q.Public()
	if len(p.Questions) != 4 || p.Questions[1].ID != "q2" || len(p.Questions[1].Options) != 2 {
		t.Fatalf("public quiz: %+v", p)
	}
	p.Questions[0].Options[0] = "changed"
	if q.Questions[0].Options[0] != "Jupiter" {
		t.Fatal("public view shares option slices")
	}
}
