package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Sentinel values substituted when an answered question has since been
// deleted from the bank.
const unknownField = "unknown"

// Summary is the headline view of one session, legal at any point in its
// lifecycle. Partial results before completion reflect only the answers
// submitted so far.
type Summary struct {
	Total            int     `json:"total"`
	Answered         int     `json:"answered"`
	Correct          int     `json:"correct"`
	Score            float64 `json:"score"`
	MaxScore         float64 `json:"max_score"`
	Percentage       float64 `json:"percentage"`
	ScorePercentage  float64 `json:"score_percentage"`
	TimeSpentSeconds int64   `json:"time_spent_seconds"`
	IsCompleted      bool    `json:"is_completed"`
	Passed           bool    `json:"passed"`
}

// AnswerDetail is one row of the detailed report, resolving an answer
// against the question bank.
type AnswerDetail struct {
	Position       int       `json:"position"`
	QuestionID     uuid.UUID `json:"question_id"`
	QuestionText   string    `json:"question_text"`
	Topic          string    `json:"topic"`
	Difficulty     string    `json:"difficulty"`
	SelectedOption int       `json:"selected_option"`
	CorrectOption  *int      `json:"correct_option"`
	IsCorrect      bool      `json:"is_correct"`
	PointsAwarded  float64   `json:"points_awarded"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// ResultsLister is the read-model side of session storage used by the admin
// results listing and the monitor feed.
type ResultsLister interface {
	ListResults(ctx context.Context, page, perPage int) ([]repository.SessionResult, int64, error)
	AggregateStats(ctx context.Context) (*repository.MonitorStats, error)
}

var _ ResultsLister = (*repository.SessionRepository)(nil)

// ResultsService derives reports from session state. Scoring resolution is
// pure and separate from persistence so it is independently testable.
type ResultsService struct {
	pool   *QuestionPool
	lister ResultsLister
	log    zerolog.Logger
}

// NewResultsService creates a new ResultsService.
func NewResultsService(pool *QuestionPool, lister ResultsLister, log zerolog.Logger) *ResultsService {
	return &ResultsService{
		pool:   pool,
		lister: lister,
		log:    log.With().Str("component", "results_service").Logger(),
	}
}

// ListResults retrieves the paginated admin results listing.
func (s *ResultsService) ListResults(ctx context.Context, page, perPage int) ([]repository.SessionResult, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := s.lister.ListResults(ctx, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []repository.SessionResult{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: (int(total) + perPage - 1) / perPage,
	}
	return results, pagination, nil
}

// Stats returns the aggregate counters shown on the monitor dashboard.
func (s *ResultsService) Stats(ctx context.Context) (*repository.MonitorStats, error) {
	stats, err := s.lister.AggregateStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	stats.At = time.Now()
	return stats, nil
}

// Summary computes the headline statistics for a session. Pure function of
// its arguments: now feeds the running time-spent of an in-progress session.
func (s *ResultsService) Summary(sess *model.ExamSession, window *model.WindowSettings, now time.Time) Summary {
	correct := 0
	for _, a := range sess.Answers {
		if a.IsCorrect {
			correct++
		}
	}

	total := len(sess.QuestionIDs)
	var percentage, scorePercentage float64
	if total > 0 {
		percentage = round2(float64(correct) / float64(total) * 100)
	}
	if sess.MaxScore > 0 {
		scorePercentage = round2(sess.Score / sess.MaxScore * 100)
	}

	timeSpent := sess.TimeSpentSeconds
	if !sess.IsCompleted && sess.StartedAt != nil {
		timeSpent = int64(now.Sub(*sess.StartedAt).Seconds())
	}

	return Summary{
		Total:            total,
		Answered:         len(sess.Answers),
		Correct:          correct,
		Score:            sess.Score,
		MaxScore:         sess.MaxScore,
		Percentage:       percentage,
		ScorePercentage:  scorePercentage,
		TimeSpentSeconds: timeSpent,
		IsCompleted:      sess.IsCompleted,
		Passed:           percentage >= window.PassingPercentage,
	}
}

// Detailed resolves each answer against the question bank. Deleted questions
// degrade to sentinel values instead of failing the whole report, and the
// answer key is withheld unless the window allows showing it.
func (s *ResultsService) Detailed(ctx context.Context, sess *model.ExamSession, window *model.WindowSettings) ([]AnswerDetail, error) {
	ids := make([]uuid.UUID, len(sess.Answers))
	for i, a := range sess.Answers {
		ids[i] = a.QuestionID
	}

	resolved, err := s.pool.ResolveMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	details := make([]AnswerDetail, len(sess.Answers))
	for i, a := range sess.Answers {
		d := AnswerDetail{
			Position:       a.Position,
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
			IsCorrect:      a.IsCorrect,
			PointsAwarded:  a.PointsAwarded,
			AnsweredAt:     a.AnsweredAt,
		}

		if q, ok := resolved[a.QuestionID]; ok {
			d.QuestionText = q.QuestionText
			d.Topic = q.Topic
			d.Difficulty = string(q.Difficulty)
			if window.ShowCorrectAnswers {
				correct := q.CorrectOption
				d.CorrectOption = &correct
			}
		} else {
			d.Topic = unknownField
			d.Difficulty = unknownField
		}

		details[i] = d
	}
	return details, nil
}

// round2 rounds to two decimal places, the precision all percentages carry.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
