package model

import "time"

// WindowSettings is the single administrator-controlled testing window. It
// bounds the calendar period during which sessions may start; each
// candidate's own elapsed time is tracked on the session.
type WindowSettings struct {
	IsOpen                 bool       `json:"is_open"`
	WindowStart            *time.Time `json:"window_start,omitempty"`
	DurationMinutes        int        `json:"duration_minutes"`
	QuestionsPerSession    int        `json:"questions_per_session"`
	StratifiedSampling     bool       `json:"stratified_sampling"`
	ShowCorrectAnswers     bool       `json:"show_correct_answers"`
	ShowResultsImmediately bool       `json:"show_results_immediately"`
	PassingPercentage      float64    `json:"passing_percentage"`
	Instructions           string     `json:"instructions"`
	WelcomeMessage         string     `json:"welcome_message"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Expired reports whether now is past windowStart + durationMinutes.
// A window that never opened has no start and cannot be expired.
func (w *WindowSettings) Expired(now time.Time) bool {
	if w.WindowStart == nil {
		return false
	}
	return now.After(w.WindowStart.Add(time.Duration(w.DurationMinutes) * time.Minute))
}

// OpenWindowRequest is the payload for opening the testing window.
type OpenWindowRequest struct {
	DurationMinutes     int      `json:"duration_minutes" binding:"required,min=1,max=480"`
	QuestionsPerSession int      `json:"questions_per_session" binding:"required,min=1,max=200"`
	StratifiedSampling  *bool    `json:"stratified_sampling" binding:"omitempty"`
	PassingPercentage   *float64 `json:"passing_percentage" binding:"omitempty,min=0,max=100"`
}

// UpdateWindowRequest is the payload for partially updating window settings.
// Cosmetic fields may change at any time; structural fields are rejected
// while the window is open so in-progress sessions stay valid.
type UpdateWindowRequest struct {
	Instructions           *string `json:"instructions" binding:"omitempty,max=5000"`
	WelcomeMessage         *string `json:"welcome_message" binding:"omitempty,max=2000"`
	ShowCorrectAnswers     *bool   `json:"show_correct_answers" binding:"omitempty"`
	ShowResultsImmediately *bool   `json:"show_results_immediately" binding:"omitempty"`

	DurationMinutes     *int     `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	QuestionsPerSession *int     `json:"questions_per_session" binding:"omitempty,min=1,max=200"`
	StratifiedSampling  *bool    `json:"stratified_sampling" binding:"omitempty"`
	PassingPercentage   *float64 `json:"passing_percentage" binding:"omitempty,min=0,max=100"`
}

// Structural reports whether the request touches any field that is immutable
// while the window is open.
func (r *UpdateWindowRequest) Structural() bool {
	return r.DurationMinutes != nil || r.QuestionsPerSession != nil ||
		r.StratifiedSampling != nil || r.PassingPercentage != nil
}
