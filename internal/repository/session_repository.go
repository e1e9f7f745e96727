package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionResult is one row of the admin results listing.
type SessionResult struct {
	SessionID   uuid.UUID           `json:"session_id"`
	CandidateID string              `json:"candidate_id"`
	Status      model.SessionStatus `json:"status"`
	Answered    int                 `json:"answered"`
	Total       int                 `json:"total"`
	Score       float64             `json:"score"`
	MaxScore    float64             `json:"max_score"`
	StartedAt   *time.Time          `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at"`
}

// SessionRepository handles exam session and answer data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new session. The UNIQUE constraint on candidate_id is the
// source of truth for one-session-per-candidate: a concurrent loser gets
// pgx.ErrNoRows and must re-read the winner's session.
func (r *SessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (candidate_id, question_ids, generation_strategy, max_score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (candidate_id) DO NOTHING
		 RETURNING id, created_at`,
		s.CandidateID, s.QuestionIDs, s.GenerationStrategy, s.MaxScore,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetByCandidate retrieves a candidate's session with its answers in
// positional order.
func (r *SessionRepository) GetByCandidate(ctx context.Context, candidateID string) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_id, question_ids, generation_strategy, score, max_score,
		        started_at, completed_at, is_completed, time_spent_seconds, created_at
		 FROM exam_sessions
		 WHERE candidate_id = $1`, candidateID,
	).Scan(&s.ID, &s.CandidateID, &s.QuestionIDs, &s.GenerationStrategy, &s.Score, &s.MaxScore,
		&s.StartedAt, &s.CompletedAt, &s.IsCompleted, &s.TimeSpentSeconds, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	answers, err := r.listAnswers(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	s.Answers = answers
	return s, nil
}

func (r *SessionRepository) listAnswers(ctx context.Context, sessionID uuid.UUID) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT position, question_id, selected_option, is_correct, points_awarded, answered_at
		 FROM session_answers
		 WHERE session_id = $1
		 ORDER BY position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.Position, &a.QuestionID, &a.SelectedOption, &a.IsCorrect, &a.PointsAwarded, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// MarkStarted records the start timestamp. Guarded so a session can only
// start once; returns pgx.ErrNoRows if it already started or completed.
func (r *SessionRepository) MarkStarted(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	var started time.Time
	return r.pool.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET started_at = $2
		 WHERE id = $1 AND started_at IS NULL AND NOT is_completed
		 RETURNING started_at`, sessionID, at,
	).Scan(&started)
}

// AppendAnswer atomically records one answer and bumps the session score.
// The (session_id, position) primary key rejects a duplicate position, which
// surfaces as pgx.ErrNoRows: the caller lost a write race and must re-read.
func (r *SessionRepository) AppendAnswer(ctx context.Context, sessionID uuid.UUID, a model.Answer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var answeredAt time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO session_answers (session_id, position, question_id, selected_option, is_correct, points_awarded, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id, position) DO NOTHING
		 RETURNING answered_at`,
		sessionID, a.Position, a.QuestionID, a.SelectedOption, a.IsCorrect, a.PointsAwarded, a.AnsweredAt,
	).Scan(&answeredAt)
	if err != nil {
		return err // pgx.ErrNoRows when the position was already answered
	}

	if _, err := tx.Exec(ctx,
		`UPDATE exam_sessions SET score = score + $2 WHERE id = $1`,
		sessionID, a.PointsAwarded); err != nil {
		return fmt.Errorf("bump score: %w", err)
	}

	return tx.Commit(ctx)
}

// Complete finalizes a session. Idempotent: completing an already-completed
// session touches zero rows and is not an error.
func (r *SessionRepository) Complete(ctx context.Context, sessionID uuid.UUID, at time.Time, timeSpentSeconds int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET is_completed = TRUE, completed_at = $2, time_spent_seconds = $3
		 WHERE id = $1 AND NOT is_completed`,
		sessionID, at, timeSpentSeconds)
	return err
}

// CompleteAllOpen force-completes every session still in flight. Used by the
// window-close sweep; one statement so it cannot half-apply.
func (r *SessionRepository) CompleteAllOpen(ctx context.Context, at time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET is_completed = TRUE,
		     completed_at = $1,
		     time_spent_seconds = CASE
		         WHEN started_at IS NULL THEN 0
		         ELSE EXTRACT(EPOCH FROM ($1::timestamptz - started_at))::bigint
		     END
		 WHERE NOT is_completed`, at)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Reset clears a not-yet-completed session back to NOT_STARTED. Returns
// pgx.ErrNoRows if the session is already completed.
func (r *SessionRepository) Reset(ctx context.Context, sessionID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`UPDATE exam_sessions
		 SET score = 0, started_at = NULL, time_spent_seconds = 0
		 WHERE id = $1 AND NOT is_completed
		 RETURNING id`, sessionID,
	).Scan(&id)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM session_answers WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear answers: %w", err)
	}

	return tx.Commit(ctx)
}

// ListResults retrieves paginated candidate results for the admin surface.
func (r *SessionRepository) ListResults(ctx context.Context, page, perPage int) ([]SessionResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exam_sessions`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.candidate_id,
		        CASE WHEN s.is_completed THEN 'COMPLETED'
		             WHEN s.started_at IS NOT NULL THEN 'IN_PROGRESS'
		             ELSE 'NOT_STARTED' END,
		        (SELECT COUNT(*) FROM session_answers a WHERE a.session_id = s.id),
		        cardinality(s.question_ids),
		        s.score, s.max_score, s.started_at, s.completed_at
		 FROM exam_sessions s
		 ORDER BY s.created_at DESC
		 LIMIT $1 OFFSET $2`, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var sr SessionResult
		if err := rows.Scan(&sr.SessionID, &sr.CandidateID, &sr.Status, &sr.Answered, &sr.Total,
			&sr.Score, &sr.MaxScore, &sr.StartedAt, &sr.CompletedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, sr)
	}
	return results, total, rows.Err()
}

// AggregateStats returns the live counts the admin monitor feed streams.
func (r *SessionRepository) AggregateStats(ctx context.Context) (*MonitorStats, error) {
	st := &MonitorStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE is_completed),
		        COUNT(*) FILTER (WHERE NOT is_completed AND started_at IS NOT NULL),
		        COALESCE(AVG(score) FILTER (WHERE is_completed), 0)
		 FROM exam_sessions`,
	).Scan(&st.TotalSessions, &st.Completed, &st.InProgress, &st.AvgCompletedScore)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// MonitorStats is the aggregate snapshot streamed to the admin monitor.
type MonitorStats struct {
	TotalSessions     int64     `json:"total_sessions"`
	Completed         int64     `json:"completed"`
	InProgress        int64     `json:"in_progress"`
	AvgCompletedScore float64   `json:"avg_completed_score"`
	At                time.Time `json:"at"`
}
