package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// WindowService administers the single global testing window. Mutations are
// rare and administrator-triggered; the store's guarded updates make
// open/close transitions race-free without an in-process lock.
type WindowService struct {
	windows  WindowStore
	sessions SessionStore
	rdb      *redis.Client // snapshot cache; may be nil
	log      zerolog.Logger
	now      func() time.Time
}

// NewWindowService creates a new WindowService.
func NewWindowService(windows WindowStore, sessions SessionStore, rdb *redis.Client, log zerolog.Logger) *WindowService {
	return &WindowService{
		windows:  windows,
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "window_service").Logger(),
		now:      time.Now,
	}
}

// EnsureDefault creates the default closed window exactly once if absent.
// Runs at startup, before the server accepts traffic.
func (s *WindowService) EnsureDefault(ctx context.Context) error {
	if err := s.windows.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("ensure default window: %w", err)
	}
	return nil
}

// Get returns the current window settings.
func (s *WindowService) Get(ctx context.Context) (*model.WindowSettings, error) {
	w, err := s.windows.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get window settings: %w", err)
	}
	return w, nil
}

// Snapshot serves the window from the Redis mirror when one is available,
// falling back to PostgreSQL on a miss or an unreadable payload. Hot read
// paths (the public window endpoint, the monitor feed) go through here so
// polling clients do not fan out to the database.
func (s *WindowService) Snapshot(ctx context.Context) (*model.WindowSettings, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, config.CacheKey.WindowSnapshotKey()).Bytes()
		if err == nil {
			var w model.WindowSettings
			if err := json.Unmarshal(raw, &w); err == nil {
				return &w, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("Window snapshot read failed")
		}
	}

	w, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, w)
	return w, nil
}

// Open starts the testing window. Rejects ErrWindowAlreadyOpen if it is
// already open.
func (s *WindowService) Open(ctx context.Context, req *model.OpenWindowRequest) (*model.WindowSettings, error) {
	err := s.windows.Open(ctx, s.now(), req.DurationMinutes, req.QuestionsPerSession, req.StratifiedSampling, req.PassingPercentage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowAlreadyOpen
		}
		return nil, fmt.Errorf("open window: %w", err)
	}

	w, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, w)

	s.log.Info().
		Int("duration_minutes", w.DurationMinutes).
		Int("questions_per_session", w.QuestionsPerSession).
		Msg("Testing window opened")
	return w, nil
}

// Close shuts the window and sweeps: every session still in flight is
// force-completed so nothing dangles past the administrative window. The
// window flips closed first, so a submission racing the sweep either beat it
// or observes ErrWindowClosed; completion itself is idempotent either way.
func (s *WindowService) Close(ctx context.Context) (*model.WindowSettings, error) {
	if err := s.windows.Close(ctx); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowAlreadyClosed
		}
		return nil, fmt.Errorf("close window: %w", err)
	}

	swept, err := s.sessions.CompleteAllOpen(ctx, s.now())
	if err != nil {
		// The window is closed; a failed sweep must not be silent.
		return nil, fmt.Errorf("sweep open sessions: %w", err)
	}

	w, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, w)

	s.log.Info().Int64("swept_sessions", swept).Msg("Testing window closed")
	return w, nil
}

// Update applies a partial settings change. While the window is open only
// cosmetic fields may change; structural fields would invalidate in-progress
// sessions and are rejected with ErrStructuralWhileOpen.
func (s *WindowService) Update(ctx context.Context, req *model.UpdateWindowRequest) (*model.WindowSettings, error) {
	w, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if w.IsOpen && req.Structural() {
		return nil, ErrStructuralWhileOpen
	}

	if err := s.windows.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("update window: %w", err)
	}

	w, err = s.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, w)
	return w, nil
}

// cacheSnapshot mirrors the window into Redis for cheap read paths and the
// monitor feed. Best-effort.
func (s *WindowService) cacheSnapshot(ctx context.Context, w *model.WindowSettings) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.WindowSnapshotKey(), raw, 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache window snapshot")
	}
}
