package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// GenerationStrategy records how a session's question list was built.
type GenerationStrategy string

const (
	StrategyStratified         GenerationStrategy = "stratified"
	StrategyStratifiedToppedUp GenerationStrategy = "stratified_topped_up"
	StrategyUniform            GenerationStrategy = "uniform"
)

// Answer is one graded submission inside a session. Created exactly once per
// question position, never mutated.
type Answer struct {
	Position       int       `json:"position"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption int       `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
	PointsAwarded  float64   `json:"points_awarded"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// ExamSession is one candidate's single exam attempt. QuestionIDs is fixed at
// generation time; Answers is append-only and strictly positional:
// Answers[i] always grades QuestionIDs[i].
type ExamSession struct {
	ID                 uuid.UUID          `json:"id"`
	CandidateID        string             `json:"candidate_id"`
	QuestionIDs        []uuid.UUID        `json:"question_ids"`
	GenerationStrategy GenerationStrategy `json:"generation_strategy"`
	Answers            []Answer           `json:"answers"`
	Score              float64            `json:"score"`
	MaxScore           float64            `json:"max_score"`
	StartedAt          *time.Time         `json:"started_at,omitempty"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	IsCompleted        bool               `json:"is_completed"`
	TimeSpentSeconds   int64              `json:"time_spent_seconds"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Status derives the state-machine state from session fields.
func (s *ExamSession) Status() SessionStatus {
	switch {
	case s.IsCompleted:
		return SessionStatusCompleted
	case s.StartedAt != nil:
		return SessionStatusInProgress
	default:
		return SessionStatusNotStarted
	}
}

// CurrentPosition is the only question index the next submission may target.
func (s *ExamSession) CurrentPosition() int {
	return len(s.Answers)
}

// Remaining reports how many questions have no answer yet.
func (s *ExamSession) Remaining() int {
	return len(s.QuestionIDs) - len(s.Answers)
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	Position       int `json:"position" binding:"min=0"`
	SelectedOption int `json:"selected_option" binding:"min=0"`
}
