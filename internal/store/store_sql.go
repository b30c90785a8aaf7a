package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sovereign-school/interactive-core/internal/adventure"
	"github.com/sovereign-school/interactive-core/internal/quiz"
	syncx "github.com/sovereign-school/interactive-core/internal/sync"
)

type SQLStore struct {
	db     *sql.DB
	events *syncx.EventRepo
}

func NewSQLStore(db *sql.DB, siteID string) *SQLStore {
	return &SQLStore{db: db, events: syncx.NewEventRepo(db, siteID)}
}

func (s *SQLStore) ListEvents(ctx context.Context, after int64, limit int) ([]syncx.Event, error) {
	return s.events.List(ctx, after, limit)
}

func (s *SQLStore) PutAdventure(ctx context.Context, rec AdventureRecord) error {
	aj, err := json.Marshal(rec.Adventure)
	if err != nil {
		return err
	}
	mj := ""
	if rec.Module != nil {
		b, err := json.Marshal(rec.Module)
		if err != nil {
			return err
		}
		mj = string(b)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO adventures (id,title,stages,adventure_json,module_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, stages=EXCLUDED.stages,
		  adventure_json=EXCLUDED.adventure_json, module_json=EXCLUDED.module_json`,
		rec.ID, rec.Adventure.Title, len(rec.Adventure.Nodes), string(aj), mj, created.Unix())
	return err
}

func (s *SQLStore) GetAdventure(ctx context.Context, id string) (AdventureRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,adventure_json,module_json,created_at FROM adventures WHERE id=$1`, id)
	var (
		rec        AdventureRecord
		aj, mj     string
		createdSec int64
	)
	if err := row.Scan(&rec.ID, &aj, &mj, &createdSec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AdventureRecord{}, fmt.Errorf("adventure %s: %w", id, ErrNotFound)
		}
		return AdventureRecord{}, err
	}
	if err := json.Unmarshal([]byte(aj), &rec.Adventure); err != nil {
		return AdventureRecord{}, err
	}
	if mj != "" {
		var m adventure.Module
		if err := json.Unmarshal([]byte(mj), &m); err != nil {
			return AdventureRecord{}, err
		}
		rec.Module = &m
	}
	rec.CreatedAt = time.Unix(createdSec, 0).UTC()
	return rec, nil
}

func (s *SQLStore) ListAdventures(ctx context.Context, opts ListOpts) ([]AdventureSummary, error) {
	q := `SELECT id,title,stages,created_at FROM adventures`
	args := []any{}
	if t := strings.TrimSpace(opts.Q); t != "" {
		q += ` WHERE LOWER(title) LIKE $1`
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	q += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT %d OFFSET %d`, opts.limit(), max(opts.Offset, 0))
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AdventureSummary{}
	for rows.Next() {
		var a AdventureSummary
		var created int64
		if err := rows.Scan(&a.ID, &a.Title, &a.Stages, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveHistory(ctx context.Context, h adventure.HistoryEntry) error {
	ev, err := syncx.NewEvent(syncx.EventAdventureCompleted, h.ModuleID, h)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO adventure_history
			(session_id,module_id,learner_id,title,score,first_try,completion,completed_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT DO NOTHING`,
			h.SessionID, h.ModuleID, h.LearnerID, h.Title, h.Score, h.FirstTryAccuracy, h.CompletionRate, h.CompletedAt.Unix())
		if err != nil {
			return err
		}
		// A replayed session id is already recorded.
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}
		return s.events.WithTx(tx).Append(ctx, ev)
	})
}

func (s *SQLStore) ListHistory(ctx context.Context, learnerID string) ([]adventure.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id,module_id,learner_id,title,score,first_try,completion,completed_at
		FROM adventure_history WHERE learner_id=$1 ORDER BY completed_at DESC, id DESC`, learnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []adventure.HistoryEntry{}
	for rows.Next() {
		var h adventure.HistoryEntry
		var done int64
		if err := rows.Scan(&h.SessionID, &h.ModuleID, &h.LearnerID, &h.Title, &h.Score, &h.FirstTryAccuracy, &h.CompletionRate, &done); err != nil {
			return nil, err
		}
		h.CompletedAt = time.Unix(done, 0).UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutQuiz(ctx context.Context, q quiz.Quiz) error {
	qj, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,title,topic,quiz_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, topic=EXCLUDED.topic, quiz_json=EXCLUDED.quiz_json`,
		q.ID, q.Title, q.Topic, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	var qj string
	err := s.db.QueryRowContext(ctx, `SELECT quiz_json FROM quizzes WHERE id=$1`, id).Scan(&qj)
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Quiz{}, fmt.Errorf("quiz %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return quiz.Quiz{}, err
	}
	var q quiz.Quiz
	if err := json.Unmarshal([]byte(qj), &q); err != nil {
		return quiz.Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) SaveQuizAttempt(ctx context.Context, a quiz.Attempt) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	ev, err := syncx.NewEvent(syncx.EventQuizSubmitted, a.ID, a)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO quiz_attempts (id,quiz_id,quiz_title,student_id,score,answers_json,submitted_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			a.ID, a.QuizID, a.QuizTitle, a.StudentID, a.Score, string(aj), a.Timestamp)
		if err != nil {
			return err
		}
		return s.events.WithTx(tx).Append(ctx, ev)
	})
}

const attemptCols = `id,quiz_id,quiz_title,student_id,score,answers_json,submitted_at`

func scanAttempt(sc interface{ Scan(...any) error }) (quiz.Attempt, error) {
	var a quiz.Attempt
	var aj string
	if err := sc.Scan(&a.ID, &a.QuizID, &a.QuizTitle, &a.StudentID, &a.Score, &aj, &a.Timestamp); err != nil {
		return quiz.Attempt{}, err
	}
	if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
		return quiz.Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) GetQuizAttempt(ctx context.Context, id string) (quiz.Attempt, error) {
	a, err := scanAttempt(s.db.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM quiz_attempts WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return quiz.Attempt{}, fmt.Errorf("quiz attempt %s: %w", id, ErrNotFound)
	}
	return a, err
}

func (s *SQLStore) ListQuizAttempts(ctx context.Context, studentID string) ([]quiz.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+attemptCols+` FROM quiz_attempts
		WHERE student_id=$1 ORDER BY submitted_at DESC, id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []quiz.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
