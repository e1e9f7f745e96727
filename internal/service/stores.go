package service

import (
	"context"
	"time"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/google/uuid"
)

// The engine is written against these store contracts rather than concrete
// repositories so the state machine can be exercised without a database.
// The pgx repositories are the production implementations; guarded writes
// (create-if-absent, positional append, start-once) signal "condition not
// met" with pgx.ErrNoRows, which the services translate to domain errors.

// QuestionStore supplies the question bank's sampling and lookup primitives.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Question, error)
	CountActive(ctx context.Context) (int, error)
	SampleActive(ctx context.Context, n int, exclude []uuid.UUID) ([]model.Question, error)
	SampleActiveByDifficulty(ctx context.Context, difficulty model.Difficulty, n int) ([]model.Question, error)
}

// SessionStore persists exam sessions and their append-only answer logs.
type SessionStore interface {
	Create(ctx context.Context, s *model.ExamSession) error
	GetByCandidate(ctx context.Context, candidateID string) (*model.ExamSession, error)
	MarkStarted(ctx context.Context, sessionID uuid.UUID, at time.Time) error
	AppendAnswer(ctx context.Context, sessionID uuid.UUID, a model.Answer) error
	Complete(ctx context.Context, sessionID uuid.UUID, at time.Time, timeSpentSeconds int64) error
	CompleteAllOpen(ctx context.Context, at time.Time) (int64, error)
	Reset(ctx context.Context, sessionID uuid.UUID) error
}

// WindowStore persists the singleton testing window.
type WindowStore interface {
	EnsureDefault(ctx context.Context) error
	Get(ctx context.Context) (*model.WindowSettings, error)
	Open(ctx context.Context, start time.Time, durationMinutes, questionsPerSession int, stratified *bool, passing *float64) error
	Close(ctx context.Context) error
	Update(ctx context.Context, req *model.UpdateWindowRequest) error
}

var (
	_ QuestionStore = (*repository.QuestionRepository)(nil)
	_ SessionStore  = (*repository.SessionRepository)(nil)
	_ WindowStore   = (*repository.WindowRepository)(nil)
)
