package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty tiers a question for stratified sampling.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question is a multiple-choice question in the bank. Once a session holds
// its id the question is referenced, never copied; sessions must survive the
// question being edited or deactivated afterwards.
type Question struct {
	ID            uuid.UUID  `json:"id"`
	QuestionText  string     `json:"question_text"`
	Topic         string     `json:"topic"`
	Options       []string   `json:"options"`
	CorrectOption int        `json:"correct_option"`
	Difficulty    Difficulty `json:"difficulty"`
	Points        float64    `json:"points"`
	IsActive      bool       `json:"is_active"`
	UsageCount    int64      `json:"usage_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// QuestionForCandidate is a question stripped of its answer key, safe to hand
// to an exam taker.
type QuestionForCandidate struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	Topic        string    `json:"topic"`
	Options      []string  `json:"options"`
	Points       float64   `json:"points"`
}

// ForCandidate strips the answer key from q.
func (q *Question) ForCandidate() QuestionForCandidate {
	return QuestionForCandidate{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Topic:        q.Topic,
		Options:      q.Options,
		Points:       q.Points,
	}
}

// CreateQuestionRequest is the payload for adding a question to the bank.
type CreateQuestionRequest struct {
	QuestionText  string   `json:"question_text" binding:"required,min=1,max=2000"`
	Topic         string   `json:"topic" binding:"omitempty,max=120"`
	Options       []string `json:"options" binding:"required,min=2,max=6,dive,required,max=500"`
	CorrectOption int      `json:"correct_option" binding:"min=0"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Points        float64  `json:"points" binding:"required,min=1"`
}

// UpdateQuestionRequest is the payload for editing an existing question.
type UpdateQuestionRequest struct {
	QuestionText  *string  `json:"question_text" binding:"omitempty,min=1,max=2000"`
	Topic         *string  `json:"topic" binding:"omitempty,max=120"`
	Options       []string `json:"options" binding:"omitempty,min=2,max=6,dive,required,max=500"`
	CorrectOption *int     `json:"correct_option" binding:"omitempty,min=0"`
	Difficulty    *string  `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points        *float64 `json:"points" binding:"omitempty,min=1"`
	IsActive      *bool    `json:"is_active" binding:"omitempty"`
}
