package handler

import (
	"net/http"
	"strconv"

	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/examhall/examhall-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles the administrative surface: the testing window,
// candidate results, session resets, and (thin) question management.
type AdminHandler struct {
	windowService   *service.WindowService
	sessionService  *service.ExamSessionService
	resultsService  *service.ResultsService
	questionService *service.QuestionService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	windowService *service.WindowService,
	sessionService *service.ExamSessionService,
	resultsService *service.ResultsService,
	questionService *service.QuestionService,
) *AdminHandler {
	return &AdminHandler{
		windowService:   windowService,
		sessionService:  sessionService,
		resultsService:  resultsService,
		questionService: questionService,
	}
}

// GetWindow godoc
// GET /api/v1/admin/window
func (h *AdminHandler) GetWindow(c *gin.Context) {
	window, err := h.windowService.Get(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"window": window})
}

// OpenWindow godoc
// POST /api/v1/admin/window/open
func (h *AdminHandler) OpenWindow(c *gin.Context) {
	var req model.OpenWindowRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	window, err := h.windowService.Open(c.Request.Context(), &req)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"window": window})
}

// CloseWindow godoc
// POST /api/v1/admin/window/close
// Closing sweeps all in-flight sessions to COMPLETED.
func (h *AdminHandler) CloseWindow(c *gin.Context) {
	window, err := h.windowService.Close(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"window": window})
}

// UpdateWindow godoc
// PUT /api/v1/admin/window
func (h *AdminHandler) UpdateWindow(c *gin.Context) {
	var req model.UpdateWindowRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	window, err := h.windowService.Update(c.Request.Context(), &req)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"window": window})
}

// ListResults godoc
// GET /api/v1/admin/results?page=&per_page=
func (h *AdminHandler) ListResults(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	results, pagination, err := h.resultsService.ListResults(c.Request.Context(), page, perPage)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// GetCandidateSession godoc
// GET /api/v1/admin/candidates/:candidate_id/session
func (h *AdminHandler) GetCandidateSession(c *gin.Context) {
	candidateID := c.Param("candidate_id")

	session, err := h.sessionService.Get(c.Request.Context(), candidateID)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// ResetCandidateSession godoc
// POST /api/v1/admin/candidates/:candidate_id/session/reset
// Administrative reset; illegal on completed sessions.
func (h *AdminHandler) ResetCandidateSession(c *gin.Context) {
	candidateID := c.Param("candidate_id")

	session, err := h.sessionService.Reset(c.Request.Context(), candidateID)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
func (h *AdminHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ListQuestions godoc
// GET /api/v1/admin/questions?page=&per_page=&include_inactive=
func (h *AdminHandler) ListQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	includeInactive := c.Query("include_inactive") == "true"

	questions, pagination, err := h.questionService.List(c.Request.Context(), page, perPage, includeInactive)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"questions": questions}, pagination)
}

// GetQuestion godoc
// GET /api/v1/admin/questions/:id
func (h *AdminHandler) GetQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
func (h *AdminHandler) UpdateQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// DeactivateQuestion godoc
// DELETE /api/v1/admin/questions/:id
// Deactivation, not deletion: sessions referencing the question keep working.
func (h *AdminHandler) DeactivateQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Deactivate(c.Request.Context(), id); err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": id})
}
