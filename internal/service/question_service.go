package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/repository"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// QuestionAdminStore is the write side of the question bank, used only by
// the administration surface.
type QuestionAdminStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	List(ctx context.Context, limit, offset int, includeInactive bool) ([]model.Question, int64, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

var _ QuestionAdminStore = (*repository.QuestionRepository)(nil)

// QuestionService handles question administration. Deliberately thin: bulk
// import/export tooling lives outside this system.
type QuestionService struct {
	questions QuestionAdminStore
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionAdminStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Create validates and inserts a new question.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest) (*model.Question, error) {
	if req.CorrectOption >= len(req.Options) {
		return nil, ErrCorrectOptionOOB
	}

	q := &model.Question{
		QuestionText:  req.QuestionText,
		Topic:         req.Topic,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Difficulty:    model.Difficulty(req.Difficulty),
		Points:        req.Points,
		IsActive:      true,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Get retrieves one question including its answer key (admin view).
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// List retrieves questions with pagination.
func (s *QuestionService) List(ctx context.Context, page, perPage int, includeInactive bool) ([]model.Question, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	questions, total, err := s.questions.List(ctx, perPage, (page-1)*perPage, includeInactive)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: (int(total) + perPage - 1) / perPage,
	}
	return questions, pagination, nil
}

// Update applies a partial edit. Editing never rewrites history: sessions
// hold the question by id and grade against whatever it said at submission
// time.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.QuestionText != nil {
		q.QuestionText = *req.QuestionText
	}
	if req.Topic != nil {
		q.Topic = *req.Topic
	}
	if req.Options != nil {
		q.Options = req.Options
	}
	if req.CorrectOption != nil {
		q.CorrectOption = *req.CorrectOption
	}
	if req.Difficulty != nil {
		q.Difficulty = model.Difficulty(*req.Difficulty)
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}

	if q.CorrectOption >= len(q.Options) {
		return nil, ErrCorrectOptionOOB
	}

	if err := s.questions.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Deactivate removes a question from the sampling pool. Existing sessions
// that reference it are unaffected.
func (s *QuestionService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.questions.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate question: %w", err)
	}
	s.log.Info().Str("question_id", id.String()).Msg("Question deactivated")
	return nil
}
