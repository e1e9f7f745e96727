package handler

import (
	"net/http"
	"time"

	"github.com/examhall/examhall-backend/internal/middleware"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/examhall/examhall-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// CandidateHandler handles candidate-facing endpoints (session lifecycle and
// results).
type CandidateHandler struct {
	generator      *service.TestGenerator
	sessionService *service.ExamSessionService
	resultsService *service.ResultsService
	windowService  *service.WindowService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(
	generator *service.TestGenerator,
	sessionService *service.ExamSessionService,
	resultsService *service.ResultsService,
	windowService *service.WindowService,
) *CandidateHandler {
	return &CandidateHandler{
		generator:      generator,
		sessionService: sessionService,
		resultsService: resultsService,
		windowService:  windowService,
	}
}

// GenerateSession godoc
// POST /api/v1/candidate/session
// Creates the candidate's session on first call; idempotent afterwards.
func (h *CandidateHandler) GenerateSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, err := h.generator.Generate(c.Request.Context(), claims.CandidateID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetSession godoc
// GET /api/v1/candidate/session
// Returns the session with its answer-key-free paper and the window state.
func (h *CandidateHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), claims.CandidateID)
	if err != nil {
		failFromService(c, err)
		return
	}

	paper, err := h.sessionService.Paper(c.Request.Context(), session)
	if err != nil {
		failFromService(c, err)
		return
	}

	window, err := h.windowService.Get(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session": session,
		"paper":   paper,
		"window": gin.H{
			"is_open":          window.IsOpen,
			"duration_minutes": window.DurationMinutes,
			"instructions":     window.Instructions,
			"welcome_message":  window.WelcomeMessage,
		},
	})
}

// StartSession godoc
// POST /api/v1/candidate/session/start
func (h *CandidateHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), claims.CandidateID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// SubmitAnswer godoc
// POST /api/v1/candidate/session/answers
// Accepts the answer for the current position only.
func (h *CandidateHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, answer, err := h.sessionService.SubmitAnswer(c.Request.Context(), claims.CandidateID, req.Position, req.SelectedOption)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"answer":           answer,
		"current_position": session.CurrentPosition(),
		"remaining":        session.Remaining(),
		"is_completed":     session.IsCompleted,
	})
}

// CompleteSession godoc
// POST /api/v1/candidate/session/complete
// Explicit submit-test action; idempotent.
func (h *CandidateHandler) CompleteSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, err := h.sessionService.Complete(c.Request.Context(), claims.CandidateID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetSummary godoc
// GET /api/v1/candidate/results/summary
// Partial results while in progress are legal; after completion the window's
// show-results-immediately flag gates candidate access.
func (h *CandidateHandler) GetSummary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, window, ok := h.loadForResults(c, claims.CandidateID)
	if !ok {
		return
	}

	summary := h.resultsService.Summary(session, window, time.Now())
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}

// GetDetailed godoc
// GET /api/v1/candidate/results/detailed
func (h *CandidateHandler) GetDetailed(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, window, ok := h.loadForResults(c, claims.CandidateID)
	if !ok {
		return
	}

	details, err := h.resultsService.Detailed(c.Request.Context(), session, window)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": details})
}

// loadForResults loads the session and window, enforcing the results
// visibility flag for completed sessions. Writes the failure response itself
// when ok is false.
func (h *CandidateHandler) loadForResults(c *gin.Context, candidateID string) (*model.ExamSession, *model.WindowSettings, bool) {
	session, err := h.sessionService.Get(c.Request.Context(), candidateID)
	if err != nil {
		failFromService(c, err)
		return nil, nil, false
	}

	window, err := h.windowService.Get(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return nil, nil, false
	}

	if session.IsCompleted && !window.ShowResultsImmediately {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return nil, nil, false
	}

	return session, window, true
}

// GetWindow godoc
// GET /api/v1/public/window
// Public window status for the pre-login landing page.
func (h *CandidateHandler) GetWindow(c *gin.Context) {
	window, err := h.windowService.Snapshot(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"is_open":         window.IsOpen,
		"expired":         window.Expired(time.Now()),
		"welcome_message": window.WelcomeMessage,
		"instructions":    window.Instructions,
	})
}
