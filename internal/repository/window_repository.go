package repository

import (
	"context"
	"time"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WindowRepository handles the singleton testing-window row (id = 1).
type WindowRepository struct {
	pool *pgxpool.Pool
}

// NewWindowRepository creates a new WindowRepository.
func NewWindowRepository(pool *pgxpool.Pool) *WindowRepository {
	return &WindowRepository{pool: pool}
}

// EnsureDefault creates the default closed window exactly once if absent.
// Safe to call from every process at startup.
func (r *WindowRepository) EnsureDefault(ctx context.Context) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO window_settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`)
	return err
}

// Get retrieves the current window settings.
func (r *WindowRepository) Get(ctx context.Context) (*model.WindowSettings, error) {
	w := &model.WindowSettings{}
	err := r.pool.QueryRow(ctx,
		`SELECT is_open, window_start, duration_minutes, questions_per_session,
		        stratified_sampling, show_correct_answers, show_results_immediately,
		        passing_percentage, instructions, welcome_message, updated_at
		 FROM window_settings WHERE id = 1`,
	).Scan(&w.IsOpen, &w.WindowStart, &w.DurationMinutes, &w.QuestionsPerSession,
		&w.StratifiedSampling, &w.ShowCorrectAnswers, &w.ShowResultsImmediately,
		&w.PassingPercentage, &w.Instructions, &w.WelcomeMessage, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Open flips the window open with its structural parameters. Guarded against
// an already-open window; returns pgx.ErrNoRows in that case.
func (r *WindowRepository) Open(ctx context.Context, start time.Time, durationMinutes, questionsPerSession int, stratified *bool, passing *float64) error {
	var id int
	return r.pool.QueryRow(ctx,
		`UPDATE window_settings
		 SET is_open = TRUE,
		     window_start = $1,
		     duration_minutes = $2,
		     questions_per_session = $3,
		     stratified_sampling = COALESCE($4, stratified_sampling),
		     passing_percentage = COALESCE($5, passing_percentage),
		     updated_at = NOW()
		 WHERE id = 1 AND NOT is_open
		 RETURNING id`,
		start, durationMinutes, questionsPerSession, stratified, passing,
	).Scan(&id)
}

// Close flips the window shut. Returns pgx.ErrNoRows if already closed.
func (r *WindowRepository) Close(ctx context.Context) error {
	var id int
	return r.pool.QueryRow(ctx,
		`UPDATE window_settings
		 SET is_open = FALSE, updated_at = NOW()
		 WHERE id = 1 AND is_open
		 RETURNING id`,
	).Scan(&id)
}

// Update applies a partial settings change; nil pointers leave a column
// as-is. The open/closed whitelist is enforced by the service, not here.
func (r *WindowRepository) Update(ctx context.Context, req *model.UpdateWindowRequest) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE window_settings
		 SET instructions = COALESCE($1, instructions),
		     welcome_message = COALESCE($2, welcome_message),
		     show_correct_answers = COALESCE($3, show_correct_answers),
		     show_results_immediately = COALESCE($4, show_results_immediately),
		     duration_minutes = COALESCE($5, duration_minutes),
		     questions_per_session = COALESCE($6, questions_per_session),
		     stratified_sampling = COALESCE($7, stratified_sampling),
		     passing_percentage = COALESCE($8, passing_percentage),
		     updated_at = NOW()
		 WHERE id = 1`,
		req.Instructions, req.WelcomeMessage, req.ShowCorrectAnswers, req.ShowResultsImmediately,
		req.DurationMinutes, req.QuestionsPerSession, req.StratifiedSampling, req.PassingPercentage)
	return err
}
