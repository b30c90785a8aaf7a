package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sovereign-school/interactive-core/internal/adventure"
	"github.com/sovereign-school/interactive-core/internal/grading"
	"github.com/sovereign-school/interactive-core/internal/interaction"
	"github.com/sovereign-school/interactive-core/internal/logger"
)

var ErrForbidden = errors.New("session belongs to another learner")

// HistorySink receives completion records.
type HistorySink interface {
	SaveHistory(ctx context.Context, h adventure.HistoryEntry) error
}

// Manager runs adventure sessions on behalf of many learners. Submits against the
// same session are serialized; different sessions proceed in parallel.
type Manager struct {
	store   Store
	history HistorySink
	grader  grading.Grader
	log     *logger.Logger
	now     func() time.Time
	locks   keyedMutex
}

type ManagerOption func(*Manager)

func WithGrader(g grading.Grader) ManagerOption    { return func(m *Manager) { m.grader = g } }
func WithLogger(l *logger.Logger) ManagerOption    { return func(m *Manager) { m.log = l } }
func WithClock(now func() time.Time) ManagerOption { return func(m *Manager) { m.now = now } }

func NewManager(store Store, history HistorySink, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:   store,
		history: history,
		grader:  grading.NewDefaultGrader(),
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) sessionOpts(learnerID string) []adventure.SessionOption {
	return []adventure.SessionOption{
		adventure.WithGrader(m.grader),
		adventure.WithClock(m.now),
		adventure.WithLearner(learnerID),
	}
}

// Start opens a new session for learnerID on adv.
func (m *Manager) Start(ctx context.Context, learnerID, moduleID string, adv adventure.Adventure) (Record, error) {
	s := adventure.NewSession(moduleID, m.sessionOpts(learnerID)...)
	if err := s.Start(adv); err != nil {
		return Record{}, err
	}
	rec := Record{ID: uuid.NewString(), OwnerID: learnerID, Snapshot: s.Snapshot(), UpdatedAt: m.now().UTC()}
	if err := m.store.Put(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("save session: %w", err)
	}
	m.log.Info("adventure session started", "session_id", rec.ID, "module_id", moduleID, "learner_id", learnerID)
	return rec, nil
}

// Get loads a session; learnerID must own it unless empty.
func (m *Manager) Get(ctx context.Context, id, learnerID string) (Record, error) {
	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if learnerID != "" && rec.OwnerID != learnerID {
		return Record{}, ErrForbidden
	}
	return rec, nil
}

// Submit grades ans in session id. On completion the history entry is handed to the
// sink before the snapshot is saved, and the finished snapshot is kept so late
// submits fail with adventure.ErrInvalidState.
func (m *Manager) Submit(ctx context.Context, id, learnerID string, ans interaction.Answer) (adventure.Outcome, Record, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	rec, err := m.Get(ctx, id, learnerID)
	if err != nil {
		return adventure.Outcome{}, Record{}, err
	}
	s, err := adventure.Restore(rec.Snapshot, m.sessionOpts(rec.OwnerID)...)
	if err != nil {
		return adventure.Outcome{}, Record{}, fmt.Errorf("restore session %s: %w", id, err)
	}
	out, err := s.Submit(ctx, ans)
	if err != nil {
		return adventure.Outcome{}, Record{}, err
	}
	if out.Completed && out.History != nil {
		out.History.SessionID = id
		if err := m.history.SaveHistory(ctx, *out.History); err != nil {
			return adventure.Outcome{}, Record{}, fmt.Errorf("save history: %w", err)
		}
		m.log.Info("adventure completed",
			"session_id", id,
			"module_id", out.History.ModuleID,
			"score", out.History.Score,
			"completion_rate", out.History.CompletionRate)
	}
	rec.Snapshot = s.Snapshot()
	rec.UpdatedAt = m.now().UTC()
	if err := m.store.Put(ctx, rec); err != nil {
		return adventure.Outcome{}, Record{}, fmt.Errorf("save session: %w", err)
	}
	return out, rec, nil
}

// Abandon drops a session without recording history.
func (m *Manager) Abandon(ctx context.Context, id, learnerID string) error {
	unlock := m.locks.Lock(id)
	defer unlock()
	if _, err := m.Get(ctx, id, learnerID); err != nil {
		return err
	}
	return m.store.Delete(ctx, id)
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the lock for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*refLock{}
	}
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
