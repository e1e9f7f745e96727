package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func newGeneratorEnv(qstore *memQuestionStore) (*TestGenerator, *memSessionStore, *memWindowStore) {
	sessions := newMemSessionStore()
	windows := newMemWindowStore()
	pool := NewQuestionPool(qstore, testLog)
	return NewTestGenerator(sessions, windows, pool, testLog), sessions, windows
}

func difficultyCounts(t *testing.T, qstore *memQuestionStore, ids []uuid.UUID) map[model.Difficulty]int {
	t.Helper()
	counts := make(map[model.Difficulty]int)
	for _, id := range ids {
		q, err := qstore.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("selected question %s not in bank: %v", id, err)
		}
		counts[q.Difficulty]++
	}
	return counts
}

func assertNoDuplicates(t *testing.T, ids []uuid.UUID) {
	t.Helper()
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("question %s selected twice", id)
		}
		seen[id] = true
	}
}

func TestGenerateStratifiedSplit(t *testing.T) {
	qstore := &memQuestionStore{}
	qstore.addTier(model.DifficultyEasy, 20)
	qstore.addTier(model.DifficultyMedium, 20)
	qstore.addTier(model.DifficultyHard, 20)

	gen, _, _ := newGeneratorEnv(qstore)

	sess, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got := len(sess.QuestionIDs); got != 30 {
		t.Fatalf("question count = %d, want 30", got)
	}
	assertNoDuplicates(t, sess.QuestionIDs)

	counts := difficultyCounts(t, qstore, sess.QuestionIDs)
	if counts[model.DifficultyEasy] != 12 || counts[model.DifficultyMedium] != 12 || counts[model.DifficultyHard] != 6 {
		t.Errorf("split = %d/%d/%d, want 12/12/6",
			counts[model.DifficultyEasy], counts[model.DifficultyMedium], counts[model.DifficultyHard])
	}
	if sess.GenerationStrategy != model.StrategyStratified {
		t.Errorf("strategy = %q, want %q", sess.GenerationStrategy, model.StrategyStratified)
	}
	if sess.MaxScore != 30 {
		t.Errorf("max score = %v, want 30", sess.MaxScore)
	}
}

func TestGenerateTopsUpShortBucket(t *testing.T) {
	qstore := &memQuestionStore{}
	qstore.addTier(model.DifficultyEasy, 10)
	qstore.addTier(model.DifficultyMedium, 10)
	// No hard questions at all: the hard bucket must be topped up.

	gen, _, windows := newGeneratorEnv(qstore)
	windows.w.QuestionsPerSession = 10

	sess, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got := len(sess.QuestionIDs); got != 10 {
		t.Fatalf("question count = %d, want 10", got)
	}
	assertNoDuplicates(t, sess.QuestionIDs)

	counts := difficultyCounts(t, qstore, sess.QuestionIDs)
	if counts[model.DifficultyHard] != 0 {
		t.Errorf("hard count = %d, want 0", counts[model.DifficultyHard])
	}
	if sess.GenerationStrategy != model.StrategyStratifiedToppedUp {
		t.Errorf("strategy = %q, want %q", sess.GenerationStrategy, model.StrategyStratifiedToppedUp)
	}
}

func TestGenerateShallowPoolFullList(t *testing.T) {
	qstore := &memQuestionStore{}
	qstore.addTier(model.DifficultyEasy, 5)
	qstore.addTier(model.DifficultyMedium, 5)
	qstore.addTier(model.DifficultyHard, 2)

	gen, _, windows := newGeneratorEnv(qstore)
	windows.w.QuestionsPerSession = 10

	sess, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// 40/40/20 of 10 asks for 4/4/2, which this shallow pool can just
	// barely satisfy; the full list must come back regardless.
	if got := len(sess.QuestionIDs); got != 10 {
		t.Fatalf("question count = %d, want 10", got)
	}
	assertNoDuplicates(t, sess.QuestionIDs)
}

func TestGenerateCappedToPoolSize(t *testing.T) {
	qstore := &memQuestionStore{}
	qstore.addTier(model.DifficultyEasy, 5)

	gen, _, _ := newGeneratorEnv(qstore)

	sess, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := len(sess.QuestionIDs); got != 5 {
		t.Errorf("question count = %d, want 5 (whole pool)", got)
	}
	assertNoDuplicates(t, sess.QuestionIDs)
}

func TestGenerateEmptyPool(t *testing.T) {
	gen, _, _ := newGeneratorEnv(&memQuestionStore{})

	if _, err := gen.Generate(context.Background(), "cand-1"); !errors.Is(err, ErrInsufficientContent) {
		t.Errorf("err = %v, want ErrInsufficientContent", err)
	}
}

func TestGenerateUniformStrategy(t *testing.T) {
	qstore := &memQuestionStore{}
	qstore.addTier(model.DifficultyEasy, 40)

	gen, _, windows := newGeneratorEnv(qstore)
	windows.w.StratifiedSampling = false

	sess, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if sess.GenerationStrategy != model.StrategyUniform {
		t.Errorf("strategy = %q, want %q", sess.GenerationStrategy, model.StrategyUniform)
	}
	if got := len(sess.QuestionIDs); got != 30 {
		t.Errorf("question count = %d, want 30", got)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	qstore := &memQuestionStore{}
	qstore.addTier(model.DifficultyEasy, 20)
	qstore.addTier(model.DifficultyMedium, 20)
	qstore.addTier(model.DifficultyHard, 20)

	gen, _, _ := newGeneratorEnv(qstore)

	first, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("second call created a new session: %s != %s", first.ID, second.ID)
	}
	if len(first.QuestionIDs) != len(second.QuestionIDs) {
		t.Fatalf("question list length changed: %d != %d", len(first.QuestionIDs), len(second.QuestionIDs))
	}
	for i := range first.QuestionIDs {
		if first.QuestionIDs[i] != second.QuestionIDs[i] {
			t.Fatalf("question order changed at position %d", i)
		}
	}
}

// raceSessionStore makes the candidate's session invisible to the first
// read, forcing the generator down the create-conflict path.
type raceSessionStore struct {
	*memSessionStore
	mu         sync.Mutex
	misses     int
	missBudget int
}

func (r *raceSessionStore) GetByCandidate(ctx context.Context, candidateID string) (*model.ExamSession, error) {
	r.mu.Lock()
	if r.misses < r.missBudget {
		r.misses++
		r.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	r.mu.Unlock()
	return r.memSessionStore.GetByCandidate(ctx, candidateID)
}

func TestGenerateLosesCreateRace(t *testing.T) {
	qstore := &memQuestionStore{}
	qstore.addTier(model.DifficultyEasy, 20)
	qstore.addTier(model.DifficultyMedium, 20)
	qstore.addTier(model.DifficultyHard, 20)

	sessions := &raceSessionStore{memSessionStore: newMemSessionStore(), missBudget: 1}
	windows := newMemWindowStore()
	pool := NewQuestionPool(qstore, testLog)
	gen := NewTestGenerator(sessions, windows, pool, testLog)

	// The winner's session already exists, but the first read misses it,
	// so the generator builds a list and loses the insert.
	winner := &model.ExamSession{CandidateID: "cand-1", QuestionIDs: []uuid.UUID{uuid.New()}, MaxScore: 1}
	if err := sessions.memSessionStore.Create(context.Background(), winner); err != nil {
		t.Fatalf("seed winner: %v", err)
	}

	got, err := gen.Generate(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.ID != winner.ID {
		t.Errorf("loser did not adopt the winner's session: %s != %s", got.ID, winner.ID)
	}
}
