package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// Stratified sampling proportions per difficulty tier. The hard bucket
// absorbs the floor-division remainder so the three counts always sum to k.
const (
	easyShare   = 40
	mediumShare = 40
)

// TestGenerator assembles one immutable question list per candidate. A
// candidate gets exactly one session for the lifetime of the account;
// repeated calls return the existing session unchanged.
type TestGenerator struct {
	sessions SessionStore
	windows  WindowStore
	pool     *QuestionPool
	log      zerolog.Logger
}

// NewTestGenerator creates a new TestGenerator.
func NewTestGenerator(sessions SessionStore, windows WindowStore, pool *QuestionPool, log zerolog.Logger) *TestGenerator {
	return &TestGenerator{
		sessions: sessions,
		windows:  windows,
		pool:     pool,
		log:      log.With().Str("component", "test_generator").Logger(),
	}
}

// Generate builds and persists the candidate's session, or returns the
// existing one. Concurrent first calls for the same candidate are resolved by
// the store's unique constraint: the loser re-reads the winner's session.
func (g *TestGenerator) Generate(ctx context.Context, candidateID string) (*model.ExamSession, error) {
	existing, err := g.sessions.GetByCandidate(ctx, candidateID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}

	window, err := g.windows.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get window settings: %w", err)
	}

	active, err := g.pool.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active questions: %w", err)
	}
	if active == 0 {
		return nil, ErrInsufficientContent
	}

	k := window.QuestionsPerSession
	if k > active {
		k = active
	}

	var (
		selected []model.Question
		strategy model.GenerationStrategy
	)
	if window.StratifiedSampling {
		selected, strategy, err = g.sampleStratified(ctx, k)
	} else {
		strategy = model.StrategyUniform
		selected, _, err = g.pool.SampleAny(ctx, k, nil)
	}
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrInsufficientContent
	}

	// Final order must not reveal how the list was assembled.
	rand.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})

	ids := make([]uuid.UUID, len(selected))
	var maxScore float64
	for i, q := range selected {
		ids[i] = q.ID
		maxScore += q.Points
	}

	session := &model.ExamSession{
		CandidateID:        candidateID,
		QuestionIDs:        ids,
		GenerationStrategy: strategy,
		MaxScore:           maxScore,
	}

	if err := g.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a concurrent first-generation race; the winner's session
			// is authoritative.
			winner, fetchErr := g.sessions.GetByCandidate(ctx, candidateID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent generation detected, but fetch failed: %w", fetchErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	g.log.Info().
		Str("candidate_id", candidateID).
		Int("questions", len(ids)).
		Str("strategy", string(strategy)).
		Msg("Session generated")

	return session, nil
}

// sampleStratified draws 40/40/20 easy/medium/hard of k, then tops up any
// bucket shortfall from the remaining active pool. The degradation is
// recorded in the returned strategy, not hidden in error handling.
func (g *TestGenerator) sampleStratified(ctx context.Context, k int) ([]model.Question, model.GenerationStrategy, error) {
	easyTarget := k * easyShare / 100
	mediumTarget := k * mediumShare / 100
	hardTarget := k - easyTarget - mediumTarget

	targets := []struct {
		difficulty model.Difficulty
		n          int
	}{
		{model.DifficultyEasy, easyTarget},
		{model.DifficultyMedium, mediumTarget},
		{model.DifficultyHard, hardTarget},
	}

	var (
		selected       []model.Question
		totalShortfall int
	)
	for _, t := range targets {
		qs, shortfall, err := g.pool.SampleByDifficulty(ctx, t.difficulty, t.n)
		if err != nil {
			return nil, "", err
		}
		selected = append(selected, qs...)
		totalShortfall += shortfall
	}

	strategy := model.StrategyStratified
	if totalShortfall > 0 {
		exclude := make([]uuid.UUID, len(selected))
		for i, q := range selected {
			exclude[i] = q.ID
		}

		topUp, _, err := g.pool.SampleAny(ctx, totalShortfall, exclude)
		if err != nil {
			return nil, "", err
		}
		selected = append(selected, topUp...)
		strategy = model.StrategyStratifiedToppedUp

		g.log.Warn().
			Int("shortfall", totalShortfall).
			Int("topped_up", len(topUp)).
			Msg("Stratified buckets short, topped up from remaining pool")
	}

	return selected, strategy, nil
}
