package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ExamSessionService drives one candidate's attempt through
// NOT_STARTED → IN_PROGRESS → COMPLETED. All mutating operations for a
// candidate are serialized behind a per-candidate mutex; the store's guarded
// writes are the backstop against anything that slips past it (duplicate
// network retries landing on different instances, for example).
type ExamSessionService struct {
	sessions SessionStore
	windows  WindowStore
	pool     *QuestionPool
	rdb      *redis.Client // best-effort side channel; may be nil
	log      zerolog.Logger

	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(sessions SessionStore, windows WindowStore, pool *QuestionPool, rdb *redis.Client, log zerolog.Logger) *ExamSessionService {
	return &ExamSessionService{
		sessions: sessions,
		windows:  windows,
		pool:     pool,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_session_service").Logger(),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// candidateLock returns the mutex serializing one candidate's mutations.
// Sessions are independent, so there is no global lock.
func (s *ExamSessionService) candidateLock(candidateID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[candidateID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[candidateID] = l
	}
	return l
}

// releaseLock evicts a candidate's mutex once the session is COMPLETED, so
// the map does not grow for the lifetime of the process. A request arriving
// after eviction allocates a fresh mutex and fails fast on the terminal
// state; the store's guarded writes hold regardless.
func (s *ExamSessionService) releaseLock(candidateID string) {
	s.mu.Lock()
	delete(s.locks, candidateID)
	s.mu.Unlock()
}

// Get retrieves a candidate's session.
func (s *ExamSessionService) Get(ctx context.Context, candidateID string) (*model.ExamSession, error) {
	sess, err := s.sessions.GetByCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Paper resolves the session's question list without answer keys, in session
// order. A question deleted since generation yields a placeholder entry so
// the positions stay aligned.
func (s *ExamSessionService) Paper(ctx context.Context, sess *model.ExamSession) ([]model.QuestionForCandidate, error) {
	resolved, err := s.pool.ResolveMany(ctx, sess.QuestionIDs)
	if err != nil {
		return nil, err
	}

	paper := make([]model.QuestionForCandidate, len(sess.QuestionIDs))
	for i, id := range sess.QuestionIDs {
		if q, ok := resolved[id]; ok {
			paper[i] = q.ForCandidate()
			continue
		}
		paper[i] = model.QuestionForCandidate{ID: id, QuestionText: "(question no longer available)"}
	}
	return paper, nil
}

// Start transitions NOT_STARTED → IN_PROGRESS. Only legal while the global
// window is open and not expired.
func (s *ExamSessionService) Start(ctx context.Context, candidateID string) (*model.ExamSession, error) {
	lock := s.candidateLock(candidateID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	switch sess.Status() {
	case model.SessionStatusCompleted:
		s.releaseLock(candidateID)
		return nil, ErrAlreadyCompleted
	case model.SessionStatusInProgress:
		return nil, ErrAlreadyStarted
	}

	window, err := s.windows.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get window settings: %w", err)
	}
	now := s.now()
	if !window.IsOpen {
		return nil, ErrWindowClosed
	}
	if window.Expired(now) {
		return nil, ErrWindowExpired
	}

	if err := s.sessions.MarkStarted(ctx, sess.ID, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyStarted
		}
		return nil, fmt.Errorf("mark started: %w", err)
	}

	sess.StartedAt = &now

	s.log.Info().Str("candidate_id", candidateID).Msg("Session started")
	return sess, nil
}

// SubmitAnswer grades and appends the answer for the current position.
// Answers are strictly positional: position must equal CurrentPosition(), or
// the call fails ErrOutOfSequence with state unchanged. Submitting past the
// per-candidate time limit fails ErrTimeExpired and force-completes the
// session as a mandatory side effect.
func (s *ExamSessionService) SubmitAnswer(ctx context.Context, candidateID string, position, selectedOption int) (*model.ExamSession, *model.Answer, error) {
	lock := s.candidateLock(candidateID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, nil, err
	}

	switch sess.Status() {
	case model.SessionStatusCompleted:
		s.releaseLock(candidateID)
		return nil, nil, ErrAlreadyCompleted
	case model.SessionStatusNotStarted:
		return nil, nil, ErrNotStarted
	}

	window, err := s.windows.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get window settings: %w", err)
	}
	now := s.now()
	if !window.IsOpen {
		return nil, nil, ErrWindowClosed
	}

	elapsed := now.Sub(*sess.StartedAt)
	if elapsed > time.Duration(window.DurationMinutes)*time.Minute {
		// Time spent reflects actual elapsed wall time, not the nominal
		// duration.
		if err := s.finalize(ctx, sess, now); err != nil {
			s.log.Error().Err(err).Str("candidate_id", candidateID).Msg("Force-completion after expiry failed")
		} else {
			s.releaseLock(candidateID)
		}
		return sess, nil, ErrTimeExpired
	}

	if position != sess.CurrentPosition() || position >= len(sess.QuestionIDs) {
		return nil, nil, ErrOutOfSequence
	}

	answer := s.grade(ctx, sess.QuestionIDs[position], position, selectedOption, now)

	if err := s.sessions.AppendAnswer(ctx, sess.ID, answer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent writer already took this position.
			return nil, nil, ErrOutOfSequence
		}
		return nil, nil, fmt.Errorf("append answer: %w", err)
	}

	sess.Answers = append(sess.Answers, answer)
	sess.Score += answer.PointsAwarded

	s.enqueueUsage(ctx, answer.QuestionID.String())

	if sess.CurrentPosition() == len(sess.QuestionIDs) {
		if err := s.finalize(ctx, sess, now); err != nil {
			return nil, nil, fmt.Errorf("auto-complete: %w", err)
		}
		s.releaseLock(candidateID)
	}

	return sess, &answer, nil
}

// grade resolves the question and scores the selection. A question deleted
// since generation grades as incorrect for zero points rather than failing
// the submission.
func (s *ExamSessionService) grade(ctx context.Context, questionID uuid.UUID, position, selectedOption int, at time.Time) model.Answer {
	answer := model.Answer{
		Position:       position,
		QuestionID:     questionID,
		SelectedOption: selectedOption,
		AnsweredAt:     at,
	}

	q, err := s.pool.Resolve(ctx, questionID)
	if err != nil {
		s.log.Warn().Err(err).Str("question_id", answer.QuestionID.String()).Msg("Grading against missing question")
		return answer
	}

	if selectedOption == q.CorrectOption {
		answer.IsCorrect = true
		answer.PointsAwarded = q.Points
	}
	return answer
}

// Complete explicitly finishes an IN_PROGRESS session. Idempotent: completing
// a COMPLETED session is a no-op that returns the session unchanged.
func (s *ExamSessionService) Complete(ctx context.Context, candidateID string) (*model.ExamSession, error) {
	lock := s.candidateLock(candidateID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		s.releaseLock(candidateID)
		return sess, nil
	}

	if err := s.finalize(ctx, sess, s.now()); err != nil {
		return nil, err
	}
	s.releaseLock(candidateID)
	return sess, nil
}

// finalize applies the COMPLETED transition to the store and the in-memory
// session. timeSpent is 0 for a session that never started.
func (s *ExamSessionService) finalize(ctx context.Context, sess *model.ExamSession, at time.Time) error {
	var timeSpent int64
	if sess.StartedAt != nil {
		timeSpent = int64(at.Sub(*sess.StartedAt).Seconds())
	}

	if err := s.sessions.Complete(ctx, sess.ID, at, timeSpent); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	sess.IsCompleted = true
	sess.CompletedAt = &at
	sess.TimeSpentSeconds = timeSpent

	s.log.Info().
		Str("candidate_id", sess.CandidateID).
		Float64("score", sess.Score).
		Int64("time_spent_seconds", timeSpent).
		Msg("Session completed")
	return nil
}

// Reset is the administrative escape hatch for a stuck, not-yet-completed
// session. It clears answers, score, and start time.
func (s *ExamSessionService) Reset(ctx context.Context, candidateID string) (*model.ExamSession, error) {
	lock := s.candidateLock(candidateID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		s.releaseLock(candidateID)
		return nil, ErrCannotResetCompleted
	}

	if err := s.sessions.Reset(ctx, sess.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCannotResetCompleted
		}
		return nil, fmt.Errorf("reset session: %w", err)
	}

	sess.Answers = nil
	sess.Score = 0
	sess.StartedAt = nil
	sess.TimeSpentSeconds = 0

	s.log.Info().Str("candidate_id", candidateID).Msg("Session reset by administrator")
	return sess, nil
}

// enqueueUsage pushes a usage-count increment onto the Redis queue for the
// batching worker. Failures are swallowed: the counter is best-effort and
// must never mask a successful submission.
func (s *ExamSessionService) enqueueUsage(ctx context.Context, questionID string) {
	if s.rdb == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{"question_id": questionID, "delta": 1})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistUsageCountsQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to enqueue usage increment")
	}
}
