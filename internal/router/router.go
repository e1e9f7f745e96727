package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/handler"
	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Candidate *handler.CandidateHandler
	Admin     *handler.AdminHandler
	Monitor   *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/window", handlers.Candidate.GetWindow)
	}

	// Session generation is the heaviest candidate endpoint; rate limit it
	// per IP so a misbehaving client cannot hammer the question bank.
	generateLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Candidate Group (JWT) ──────────────────────────────────────
	candidateAPI := router.Group("/api/v1/candidate")
	candidateAPI.Use(middleware.RequireCandidateJWT(authService))
	{
		candidateAPI.POST("/session", generateLimiter.Middleware(), handlers.Candidate.GenerateSession)
		candidateAPI.GET("/session", handlers.Candidate.GetSession)
		candidateAPI.POST("/session/start", handlers.Candidate.StartSession)
		candidateAPI.POST("/session/answers", handlers.Candidate.SubmitAnswer)
		candidateAPI.POST("/session/complete", handlers.Candidate.CompleteSession)
		candidateAPI.GET("/results/summary", handlers.Candidate.GetSummary)
		candidateAPI.GET("/results/detailed", handlers.Candidate.GetDetailed)
	}

	// ─── 2. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/monitor", handlers.Monitor.MonitorStream)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Window lifecycle
		adminAPI.GET("/window", handlers.Admin.GetWindow)
		adminAPI.POST("/window/open", handlers.Admin.OpenWindow)
		adminAPI.POST("/window/close", handlers.Admin.CloseWindow)
		adminAPI.PUT("/window", handlers.Admin.UpdateWindow)

		// Results and candidate sessions
		adminAPI.GET("/results", handlers.Admin.ListResults)
		adminAPI.GET("/candidates/:candidate_id/session", handlers.Admin.GetCandidateSession)
		adminAPI.POST("/candidates/:candidate_id/session/reset", handlers.Admin.ResetCandidateSession)

		// Question management
		adminAPI.GET("/questions", handlers.Admin.ListQuestions)
		adminAPI.POST("/questions", handlers.Admin.CreateQuestion)
		adminAPI.GET("/questions/:id", handlers.Admin.GetQuestion)
		adminAPI.PUT("/questions/:id", handlers.Admin.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Admin.DeactivateQuestion)
	}

	return router
}
