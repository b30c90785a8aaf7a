package store

import (
	"context"
	"errors"
	"time"

	"github.com/sovereign-school/interactive-core/internal/adventure"
	"github.com/sovereign-school/interactive-core/internal/quiz"
	syncx "github.com/sovereign-school/interactive-core/internal/sync"
)

var ErrNotFound = errors.New("not found")

// AdventureRecord is a stored adventure together with the module it was authored from.
type AdventureRecord struct {
	ID        string              `json:"id"`
	Module    *adventure.Module   `json:"module,omitempty"`
	Adventure adventure.Adventure `json:"adventure"`
	CreatedAt time.Time           `json:"createdAt"`
}

type AdventureSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Stages    int       `json:"stages"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListOpts struct {
	Q      string
	Limit  int
	Offset int
}

func (o ListOpts) limit() int {
	if o.Limit <= 0 || o.Limit > 200 {
		return 50
	}
	return o.Limit
}

type Store interface {
	PutAdventure(ctx context.Context, rec AdventureRecord) error
	GetAdventure(ctx context.Context, id string) (AdventureRecord, error)
	ListAdventures(ctx context.Context, opts ListOpts) ([]AdventureSummary, error)

	// SaveHistory records a completed play-through and logs an AdventureCompleted event.
	SaveHistory(ctx context.Context, h adventure.HistoryEntry) error
	ListHistory(ctx context.Context, learnerID string) ([]adventure.HistoryEntry, error)

	PutQuiz(ctx context.Context, q quiz.Quiz) error
	GetQuiz(ctx context.Context, id string) (quiz.Quiz, error)

	// SaveQuizAttempt records a graded attempt and logs a QuizSubmitted event.
	SaveQuizAttempt(ctx context.Context, a quiz.Attempt) error
	GetQuizAttempt(ctx context.Context, id string) (quiz.Attempt, error)
	ListQuizAttempts(ctx context.Context, studentID string) ([]quiz.Attempt, error)

	// ListEvents pages through the event log in append order.
	ListEvents(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}
