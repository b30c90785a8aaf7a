package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyQuiz = errors.New("quiz has no questions")
	ErrMalformed = errors.New("malformed quiz")
)

type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Topic         string   `json:"topic"`
}

type Quiz struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Topic      string     `json:"topic"`
	Questions  []Question `json:"questions"`
	SourceText string     `json:"sourceText,omitempty"`
}

// Decode parses a generated quiz and validates it.
func Decode(b []byte) (Quiz, error) {
	var q Quiz
	if err := json.Unmarshal(b, &q); err != nil {
		return Quiz{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := q.Validate(); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return ErrEmptyQuiz
	}
	ids := make(map[string]bool, len(q.Questions))
	for i, qq := range q.Questions {
		if strings.TrimSpace(qq.ID) == "" {
			return fmt.Errorf("%w: question %d has no id", ErrMalformed, i)
		}
		if ids[qq.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrMalformed, qq.ID)
		}
		ids[qq.ID] = true
		if len(qq.Options) < 2 {
			return fmt.Errorf("%w: question %q needs at least two options", ErrMalformed, qq.ID)
		}
		found := false
		for _, o := range qq.Options {
			if o == qq.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: question %q: correct answer is not an option", ErrMalformed, qq.ID)
		}
	}
	return nil
}

// PublicQuestion is a question as a learner sees it.
type PublicQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Topic    string   `json:"topic,omitempty"`
}

type PublicQuiz struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Topic     string           `json:"topic"`
	Questions []PublicQuestion `json:"questions"`
}

// Public strips correct answers and source material.
func (q Quiz) Public() PublicQuiz {
	out := PublicQuiz{ID: q.ID, Title: q.Title, Topic: q.Topic, Questions: make([]PublicQuestion, len(q.Questions))}
	for i, qq := range q.Questions {
		out.Questions[i] = PublicQuestion{
			ID:       qq.ID,
			Question: qq.Question,
			Options:  append([]string(nil), qq.Options...),
			Topic:    qq.Topic,
		}
	}
	return out
}

type AnswerRecord struct {
	QuestionID    string `json:"questionId"`
	StudentAnswer string `json:"studentAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// Attempt is a graded quiz submission. It is never modified after Grade returns it.
type Attempt struct {
	ID        string         `json:"id"`
	QuizID    string         `json:"quizId"`
	QuizTitle string         `json:"quizTitle"`
	StudentID string         `json:"studentId"`
	Timestamp string         `json:"timestamp"`
	Score     int            `json:"score"`
	Answers   []AnswerRecord `json:"answers"`
}

type Grader struct {
	now   func() time.Time
	newID func() string
}

type Option func(*Grader)

func WithClock(now func() time.Time) Option { return func(g *Grader) { g.now = now } }
func WithIDs(fn func() string) Option       { return func(g *Grader) { g.newID = fn } }

func NewGrader(opts ...Option) *Grader {
	g := &Grader{now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Grade scores answers (question id to chosen option) against q. Matching is exact
// and case-sensitive; a missing answer counts as incorrect.
func (g *Grader) Grade(q Quiz, studentID string, answers map[string]string) (Attempt, error) {
	if len(q.Questions) == 0 {
		return Attempt{}, ErrEmptyQuiz
	}
	a := Attempt{
		ID:        g.newID(),
		QuizID:    q.ID,
		QuizTitle: q.Title,
		StudentID: studentID,
		Timestamp: g.now().UTC().Format(time.RFC3339),
		Answers:   make([]AnswerRecord, len(q.Questions)),
	}
	correct := 0
	for i, qq := range q.Questions {
		got, ok := answers[qq.ID]
		rec := AnswerRecord{QuestionID: qq.ID, StudentAnswer: got}
		if ok && got == qq.CorrectAnswer {
			rec.IsCorrect = true
			correct++
		}
		a.Answers[i] = rec
	}
	a.Score = int(math.Round(float64(correct) * 100 / float64(len(q.Questions))))
	return a, nil
}

// Grade uses a grader with the wall clock and random ids.
func Grade(q Quiz, studentID string, answers map[string]string) (Attempt, error) {
	return NewGrader().Grade(q, studentID, answers)
}
