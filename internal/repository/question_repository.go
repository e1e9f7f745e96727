package repository

import (
	"context"
	"fmt"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const questionColumns = `id, question_text, topic, options, correct_option, difficulty, points, is_active, usage_count, created_at, updated_at`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.QuestionText, &q.Topic, &q.Options, &q.CorrectOption,
		&q.Difficulty, &q.Points, &q.IsActive, &q.UsageCount, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

// GetByIDs retrieves questions by id, keyed for positional resolution.
// Missing ids are simply absent from the map, never an error.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*model.Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ID] = q
	}
	return out, rows.Err()
}

// CountActive returns the number of questions eligible for sampling.
func (r *QuestionRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE is_active`).Scan(&n)
	return n, err
}

// SampleActive draws up to n active questions uniformly without replacement,
// skipping any id in exclude. Postgres does the shuffle.
func (r *QuestionRepository) SampleActive(ctx context.Context, n int, exclude []uuid.UUID) ([]model.Question, error) {
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE is_active AND NOT (id = ANY($1))
		 ORDER BY random()
		 LIMIT $2`, exclude, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// SampleActiveByDifficulty draws up to n active questions of one difficulty
// tier, uniformly without replacement.
func (r *QuestionRepository) SampleActiveByDifficulty(ctx context.Context, difficulty model.Difficulty, n int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE is_active AND difficulty = $1
		 ORDER BY random()
		 LIMIT $2`, difficulty, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

// List retrieves questions with pagination, newest first.
func (r *QuestionRepository) List(ctx context.Context, limit, offset int, includeInactive bool) ([]model.Question, int64, error) {
	where := `WHERE is_active`
	if includeInactive {
		where = ``
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions `+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions `+where+`
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	questions, err := collectQuestions(rows)
	return questions, total, err
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (question_text, topic, options, correct_option, difficulty, points, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, usage_count, created_at, updated_at`,
		q.QuestionText, q.Topic, q.Options, q.CorrectOption, q.Difficulty, q.Points, q.IsActive,
	).Scan(&q.ID, &q.UsageCount, &q.CreatedAt, &q.UpdatedAt)
}

// Update overwrites an existing question's editable fields.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, topic = $2, options = $3, correct_option = $4,
		     difficulty = $5, points = $6, is_active = $7, updated_at = NOW()
		 WHERE id = $8`,
		q.QuestionText, q.Topic, q.Options, q.CorrectOption, q.Difficulty, q.Points, q.IsActive, q.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %s: no row updated", q.ID)
	}
	return nil
}

// Deactivate removes a question from the sampling pool without deleting it;
// sessions that reference it keep working.
func (r *QuestionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// BulkIncrementUsage applies batched usage-count deltas with a single UNNEST update.
func (r *QuestionRepository) BulkIncrementUsage(ctx context.Context, ids []uuid.UUID, deltas []int64) error {
	query := `
		UPDATE questions AS q
		SET usage_count = q.usage_count + t.delta
		FROM (
			SELECT u.id, u.delta
			FROM UNNEST($1::uuid[], $2::bigint[]) AS u (id, delta)
		) AS t
		WHERE q.id = t.id
	`
	_, err := r.pool.Exec(ctx, query, ids, deltas)
	return err
}

// IncrementUsage is the single-row fallback for BulkIncrementUsage.
func (r *QuestionRepository) IncrementUsage(ctx context.Context, id uuid.UUID, delta int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET usage_count = usage_count + $1 WHERE id = $2`, delta, id)
	return err
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}
