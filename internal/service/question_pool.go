package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// QuestionPool exposes the sampling and resolution primitives over the
// active question bank. Sampling is uniform without replacement; a draw that
// cannot be filled reports a shortfall instead of failing, and callers decide
// whether that is fatal.
type QuestionPool struct {
	questions QuestionStore
	log       zerolog.Logger
}

// NewQuestionPool creates a new QuestionPool.
func NewQuestionPool(questions QuestionStore, log zerolog.Logger) *QuestionPool {
	return &QuestionPool{
		questions: questions,
		log:       log.With().Str("component", "question_pool").Logger(),
	}
}

// SampleByDifficulty draws up to n active questions of one tier. The second
// return value is the shortfall: n minus what the pool could supply.
func (p *QuestionPool) SampleByDifficulty(ctx context.Context, difficulty model.Difficulty, n int) ([]model.Question, int, error) {
	if n <= 0 {
		return nil, 0, nil
	}
	qs, err := p.questions.SampleActiveByDifficulty(ctx, difficulty, n)
	if err != nil {
		return nil, 0, fmt.Errorf("sample %s questions: %w", difficulty, err)
	}
	return qs, n - len(qs), nil
}

// SampleAny draws up to n active questions from the whole pool, skipping ids
// in exclude. Returns the shortfall alongside the draw.
func (p *QuestionPool) SampleAny(ctx context.Context, n int, exclude []uuid.UUID) ([]model.Question, int, error) {
	if n <= 0 {
		return nil, 0, nil
	}
	qs, err := p.questions.SampleActive(ctx, n, exclude)
	if err != nil {
		return nil, 0, fmt.Errorf("sample questions: %w", err)
	}
	return qs, n - len(qs), nil
}

// CountActive reports how many questions are currently eligible for sampling.
func (p *QuestionPool) CountActive(ctx context.Context) (int, error) {
	return p.questions.CountActive(ctx)
}

// Resolve fetches one question by id. Returns ErrQuestionNotFound for a
// missing id so callers can degrade instead of crashing.
func (p *QuestionPool) Resolve(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := p.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// ResolveMany fetches a batch of questions keyed by id. Ids that no longer
// exist are simply absent from the map.
func (p *QuestionPool) ResolveMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Question, error) {
	qs, err := p.questions.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	if missing := len(ids) - len(qs); missing > 0 {
		p.log.Debug().Int("missing", missing).Msg("some referenced questions no longer exist")
	}
	return qs, nil
}
