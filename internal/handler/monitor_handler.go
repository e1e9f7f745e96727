package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examhall/examhall-backend/internal/service"
	ws "github.com/examhall/examhall-backend/internal/websocket"
)

// statsInterval is how often the monitor pushes a fresh snapshot.
const statsInterval = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live session statistics to the admin dashboard.
type MonitorHandler struct {
	resultsService *service.ResultsService
	windowService  *service.WindowService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(resultsService *service.ResultsService, windowService *service.WindowService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		resultsService: resultsService,
		windowService:  windowService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// MonitorStream godoc
// WS /ws/v1/admin/monitor
// Upgrades to WebSocket and pushes aggregate session stats every few
// seconds. The client may send {"action":"refresh"} to get an immediate
// snapshot or {"action":"ping"} to keep the connection alive.
func (h *MonitorHandler) MonitorStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("Monitor connected")

	// All writes happen on this goroutine; the reader only forwards
	// actions through the channel.
	actions := make(chan ws.Action)
	done := make(chan struct{})
	go h.readActions(conn, actions, done)

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	h.pushStats(c, conn)

	for {
		select {
		case <-done:
			h.log.Debug().Msg("Monitor disconnected")
			return
		case action := <-actions:
			switch action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				h.pushStats(c, conn)
			default:
				ws.WriteError(conn, "unknown action: "+string(action))
			}
		case <-ticker.C:
			h.pushStats(c, conn)
		}
	}
}

// readActions reads client messages until the connection closes.
func (h *MonitorHandler) readActions(conn *websocket.Conn, actions chan<- ws.Action, done chan<- struct{}) {
	defer close(done)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		actions <- msg.Action
	}
}

// pushStats sends one stats snapshot to the client.
func (h *MonitorHandler) pushStats(c *gin.Context, conn *websocket.Conn) {
	ctx := c.Request.Context()

	stats, err := h.resultsService.Stats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Aggregate stats error")
		ws.WriteError(conn, "stats unavailable")
		return
	}

	windowOpen := false
	if window, err := h.windowService.Snapshot(ctx); err == nil {
		windowOpen = window.IsOpen
	}

	ws.WriteTyped(conn, ws.StatsResponse{
		Event:      ws.EventStats,
		WindowOpen: windowOpen,
		Stats:      stats,
	})
}
