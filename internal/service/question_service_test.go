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

type memQuestionAdminStore struct {
	mu        sync.Mutex
	questions []model.Question
}

var _ QuestionAdminStore = (*memQuestionAdminStore)(nil)

func (m *memQuestionAdminStore) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
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

func (m *memQuestionAdminStore) List(_ context.Context, limit, offset int, includeInactive bool) ([]model.Question, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Question
	for _, q := range m.questions {
		if includeInactive || q.IsActive {
			all = append(all, q)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memQuestionAdminStore) Create(_ context.Context, q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	m.questions = append(m.questions, *q)
	return nil
}

func (m *memQuestionAdminStore) Update(_ context.Context, q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.questions {
		if m.questions[i].ID == q.ID {
			m.questions[i] = *q
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *memQuestionAdminStore) Deactivate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.questions {
		if m.questions[i].ID == id {
			m.questions[i].IsActive = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

func validCreateRequest() *model.CreateQuestionRequest {
	return &model.CreateQuestionRequest{
		QuestionText:  "which option is correct?",
		Topic:         "networking",
		Options:       []string{"a", "b", "c", "d"},
		CorrectOption: 2,
		Difficulty:    "medium",
		Points:        2,
	}
}

func TestQuestionCreateValidatesCorrectOption(t *testing.T) {
	svc := NewQuestionService(&memQuestionAdminStore{}, testLog)
	ctx := context.Background()

	q, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !q.IsActive {
		t.Error("new question not active")
	}
	if q.ID == uuid.Nil {
		t.Error("new question has no id")
	}

	bad := validCreateRequest()
	bad.CorrectOption = 4
	if _, err := svc.Create(ctx, bad); !errors.Is(err, ErrCorrectOptionOOB) {
		t.Errorf("err = %v, want ErrCorrectOptionOOB", err)
	}
}

func TestQuestionUpdatePartial(t *testing.T) {
	store := &memQuestionAdminStore{}
	svc := NewQuestionService(store, testLog)
	ctx := context.Background()

	q, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	topic := "security"
	updated, err := svc.Update(ctx, q.ID, &model.UpdateQuestionRequest{Topic: &topic})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Topic != "security" {
		t.Errorf("topic = %q, want security", updated.Topic)
	}
	if updated.CorrectOption != q.CorrectOption || updated.Points != q.Points {
		t.Error("partial update clobbered untouched fields")
	}

	// Shrinking the option list below the correct option is rejected.
	if _, err := svc.Update(ctx, q.ID, &model.UpdateQuestionRequest{Options: []string{"a", "b"}}); !errors.Is(err, ErrCorrectOptionOOB) {
		t.Errorf("err = %v, want ErrCorrectOptionOOB", err)
	}
}

func TestQuestionDeactivateKeepsRecord(t *testing.T) {
	store := &memQuestionAdminStore{}
	svc := NewQuestionService(store, testLog)
	ctx := context.Background()

	q, err := svc.Create(ctx, validCreateRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Deactivate(ctx, q.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	// Still resolvable for grading and results.
	got, err := svc.Get(ctx, q.ID)
	if err != nil {
		t.Fatalf("Get after deactivation: %v", err)
	}
	if got.IsActive {
		t.Error("question still active after deactivation")
	}

	// But gone from the default listing.
	active, _, err := svc.List(ctx, 1, 20, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deactivated question still listed: %d entries", len(active))
	}
}

func TestQuestionGetMissing(t *testing.T) {
	svc := NewQuestionService(&memQuestionAdminStore{}, testLog)

	if _, err := svc.Get(context.Background(), uuid.New()); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("err = %v, want ErrQuestionNotFound", err)
	}
}
