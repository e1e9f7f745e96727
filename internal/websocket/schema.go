package websocket

import "github.com/examhall/examhall-backend/internal/repository"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventStats Event = "stats"
	EventPong  Event = "pong"
)

// StatsResponse carries a live snapshot of session counts and the
// window state to the admin dashboard.
type StatsResponse struct {
	Event      Event                    `json:"event"`
	WindowOpen bool                     `json:"window_open"`
	Stats      *repository.MonitorStats `json:"stats"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
