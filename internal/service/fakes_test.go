package service

import (
	"context"
	"sync"
	"time"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// In-memory store implementations mirroring the pgx repositories' guarded
// write semantics: a guard that matches zero rows surfaces as pgx.ErrNoRows.

var testLog = zerolog.Nop()

var (
	_ QuestionStore = (*memQuestionStore)(nil)
	_ SessionStore  = (*memSessionStore)(nil)
	_ WindowStore   = (*memWindowStore)(nil)
)

// ─── Question store ─────────────────────────────────────────────────

type memQuestionStore struct {
	mu        sync.Mutex
	questions []model.Question
}

func (m *memQuestionStore) add(topic string, difficulty model.Difficulty, points float64) model.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := model.Question{
		ID:            uuid.New(),
		QuestionText:  "which option is correct?",
		Topic:         topic,
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: 0,
		Difficulty:    difficulty,
		Points:        points,
		IsActive:      true,
	}
	m.questions = append(m.questions, q)
	return q
}

func (m *memQuestionStore) addTier(difficulty model.Difficulty, n int) {
	for i := 0; i < n; i++ {
		m.add("general", difficulty, 1)
	}
}

func (m *memQuestionStore) deactivate(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.questions {
		if m.questions[i].ID == id {
			m.questions[i].IsActive = false
		}
	}
}

func (m *memQuestionStore) remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.questions[:0]
	for _, q := range m.questions {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	m.questions = kept
}

func (m *memQuestionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions {
		if q.ID == id {
			cp := q
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memQuestionStore) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*model.Question)
	for _, id := range ids {
		for _, q := range m.questions {
			if q.ID == id {
				cp := q
				out[id] = &cp
				break
			}
		}
	}
	return out, nil
}

func (m *memQuestionStore) CountActive(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.questions {
		if q.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memQuestionStore) SampleActive(_ context.Context, n int, exclude []uuid.UUID) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	excluded := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	var out []model.Question
	for _, q := range m.questions {
		if len(out) == n {
			break
		}
		if q.IsActive && !excluded[q.ID] {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuestionStore) SampleActiveByDifficulty(_ context.Context, difficulty model.Difficulty, n int) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Question
	for _, q := range m.questions {
		if len(out) == n {
			break
		}
		if q.IsActive && q.Difficulty == difficulty {
			out = append(out, q)
		}
	}
	return out, nil
}

// ─── Session store ──────────────────────────────────────────────────

type memSessionStore struct {
	mu          sync.Mutex
	byID        map[uuid.UUID]*model.ExamSession
	byCandidate map[string]uuid.UUID
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		byID:        make(map[uuid.UUID]*model.ExamSession),
		byCandidate: make(map[string]uuid.UUID),
	}
}

func cloneSession(s *model.ExamSession) *model.ExamSession {
	cp := *s
	cp.QuestionIDs = append([]uuid.UUID(nil), s.QuestionIDs...)
	cp.Answers = append([]model.Answer(nil), s.Answers...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		cp.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func (m *memSessionStore) Create(_ context.Context, s *model.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byCandidate[s.CandidateID]; exists {
		return pgx.ErrNoRows
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.byID[s.ID] = cloneSession(s)
	m.byCandidate[s.CandidateID] = s.ID
	return nil
}

func (m *memSessionStore) GetByCandidate(_ context.Context, candidateID string) (*model.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCandidate[candidateID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneSession(m.byID[id]), nil
}

func (m *memSessionStore) MarkStarted(_ context.Context, sessionID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok || s.StartedAt != nil || s.IsCompleted {
		return pgx.ErrNoRows
	}
	t := at
	s.StartedAt = &t
	return nil
}

func (m *memSessionStore) AppendAnswer(_ context.Context, sessionID uuid.UUID, a model.Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok {
		return pgx.ErrNoRows
	}
	for _, existing := range s.Answers {
		if existing.Position == a.Position {
			return pgx.ErrNoRows
		}
	}
	s.Answers = append(s.Answers, a)
	s.Score += a.PointsAwarded
	return nil
}

func (m *memSessionStore) Complete(_ context.Context, sessionID uuid.UUID, at time.Time, timeSpentSeconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok || s.IsCompleted {
		return nil
	}
	t := at
	s.IsCompleted = true
	s.CompletedAt = &t
	s.TimeSpentSeconds = timeSpentSeconds
	return nil
}

func (m *memSessionStore) CompleteAllOpen(_ context.Context, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var swept int64
	for _, s := range m.byID {
		if s.IsCompleted {
			continue
		}
		t := at
		s.IsCompleted = true
		s.CompletedAt = &t
		if s.StartedAt != nil {
			s.TimeSpentSeconds = int64(at.Sub(*s.StartedAt).Seconds())
		}
		swept++
	}
	return swept, nil
}

func (m *memSessionStore) Reset(_ context.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[sessionID]
	if !ok || s.IsCompleted {
		return pgx.ErrNoRows
	}
	s.Answers = nil
	s.Score = 0
	s.StartedAt = nil
	s.TimeSpentSeconds = 0
	return nil
}

// ─── Window store ───────────────────────────────────────────────────

type memWindowStore struct {
	mu sync.Mutex
	w  model.WindowSettings
}

func newMemWindowStore() *memWindowStore {
	return &memWindowStore{
		w: model.WindowSettings{
			DurationMinutes:        60,
			QuestionsPerSession:    30,
			StratifiedSampling:     true,
			ShowResultsImmediately: true,
			PassingPercentage:      60,
			UpdatedAt:              time.Now(),
		},
	}
}

func (m *memWindowStore) EnsureDefault(_ context.Context) error { return nil }

func (m *memWindowStore) Get(_ context.Context) (*model.WindowSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := m.w
	if m.w.WindowStart != nil {
		t := *m.w.WindowStart
		cp.WindowStart = &t
	}
	return &cp, nil
}

func (m *memWindowStore) Open(_ context.Context, start time.Time, durationMinutes, questionsPerSession int, stratified *bool, passing *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.w.IsOpen {
		return pgx.ErrNoRows
	}
	t := start
	m.w.IsOpen = true
	m.w.WindowStart = &t
	m.w.DurationMinutes = durationMinutes
	m.w.QuestionsPerSession = questionsPerSession
	if stratified != nil {
		m.w.StratifiedSampling = *stratified
	}
	if passing != nil {
		m.w.PassingPercentage = *passing
	}
	return nil
}

func (m *memWindowStore) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.w.IsOpen {
		return pgx.ErrNoRows
	}
	m.w.IsOpen = false
	return nil
}

func (m *memWindowStore) Update(_ context.Context, req *model.UpdateWindowRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.Instructions != nil {
		m.w.Instructions = *req.Instructions
	}
	if req.WelcomeMessage != nil {
		m.w.WelcomeMessage = *req.WelcomeMessage
	}
	if req.ShowCorrectAnswers != nil {
		m.w.ShowCorrectAnswers = *req.ShowCorrectAnswers
	}
	if req.ShowResultsImmediately != nil {
		m.w.ShowResultsImmediately = *req.ShowResultsImmediately
	}
	if req.DurationMinutes != nil {
		m.w.DurationMinutes = *req.DurationMinutes
	}
	if req.QuestionsPerSession != nil {
		m.w.QuestionsPerSession = *req.QuestionsPerSession
	}
	if req.StratifiedSampling != nil {
		m.w.StratifiedSampling = *req.StratifiedSampling
	}
	if req.PassingPercentage != nil {
		m.w.PassingPercentage = *req.PassingPercentage
	}
	return nil
}
