package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sovereign-school/interactive-core/internal/adventure"
	"github.com/sovereign-school/interactive-core/internal/quiz"
	syncx "github.com/sovereign-school/interactive-core/internal/sync"
)

type memoryStore struct {
	mu         sync.RWMutex
	adventures map[string]AdventureRecord
	history    []adventure.HistoryEntry
	quizzes    map[string]quiz.Quiz
	attempts   map[string]quiz.Attempt
	events     []syncx.Event
}

// NewMemoryStore returns a Store kept entirely in process memory.
func NewMemoryStore() Store {
	return &memoryStore{
		adventures: map[string]AdventureRecord{},
		quizzes:    map[string]quiz.Quiz{},
		attempts:   map[string]quiz.Attempt{},
	}
}

func (m *memoryStore) PutAdventure(_ context.Context, rec AdventureRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if old, ok := m.adventures[rec.ID]; ok {
		rec.CreatedAt = old.CreatedAt
	}
	m.adventures[rec.ID] = rec
	return nil
}

func (m *memoryStore) GetAdventure(_ context.Context, id string) (AdventureRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.adventures[id]
	if !ok {
		return AdventureRecord{}, fmt.Errorf("adventure %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

func (m *memoryStore) ListAdventures(_ context.Context, opts ListOpts) ([]AdventureSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := []AdventureSummary{}
	for _, rec := range m.adventures {
		if q != "" && !strings.Contains(strings.ToLower(rec.Adventure.Title), q) {
			continue
		}
		out = append(out, AdventureSummary{ID: rec.ID, Title: rec.Adventure.Title, Stages: len(rec.Adventure.Nodes), CreatedAt: rec.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	start := min(max(opts.Offset, 0), len(out))
	end := min(start+opts.limit(), len(out))
	return out[start:end], nil
}

func (m *memoryStore) SaveHistory(_ context.Context, h adventure.HistoryEntry) error {
	ev, err := syncx.NewEvent(syncx.EventAdventureCompleted, h.ModuleID, h)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.SessionID != "" {
		for _, prev := range m.history {
			if prev.SessionID == h.SessionID {
				return nil
			}
		}
	}
	m.history = append(m.history, h)
	m.appendEvent(ev)
	return nil
}

func (m *memoryStore) ListHistory(_ context.Context, learnerID string) ([]adventure.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []adventure.HistoryEntry{}
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].LearnerID == learnerID {
			out = append(out, m.history[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (m *memoryStore) PutQuiz(_ context.Context, q quiz.Quiz) error {
	// round-trip so later edits by the caller never leak in
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}
	var cp quiz.Quiz
	if err := json.Unmarshal(b, &cp); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = cp
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return quiz.Quiz{}, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	return q, nil
}

func (m *memoryStore) SaveQuizAttempt(_ context.Context, a quiz.Attempt) error {
	ev, err := syncx.NewEvent(syncx.EventQuizSubmitted, a.ID, a)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.attempts[a.ID]; dup {
		return fmt.Errorf("quiz attempt %s already recorded", a.ID)
	}
	a.Answers = append([]quiz.AnswerRecord(nil), a.Answers...)
	m.attempts[a.ID] = a
	m.appendEvent(ev)
	return nil
}

func (m *memoryStore) GetQuizAttempt(_ context.Context, id string) (quiz.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return quiz.Attempt{}, fmt.Errorf("quiz attempt %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *memoryStore) ListQuizAttempts(_ context.Context, studentID string) ([]quiz.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []quiz.Attempt{}
	for _, a := range m.attempts {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) ListEvents(_ context.Context, after int64, limit int) ([]syncx.Event, error) {
	switch {
	case limit <= 0:
		limit = 100
	case limit > 500:
		limit = 500
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []syncx.Event{}
	for _, e := range m.events {
		if e.Seq > after {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// caller holds mu
func (m *memoryStore) appendEvent(e syncx.Event) {
	e.Seq = int64(len(m.events) + 1)
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	e.CreatedAt = time.Now().Unix()
	m.events = append(m.events, e)
}
