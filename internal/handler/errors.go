package handler

import (
	"errors"
	"net/http"

	"github.com/examhall/examhall-backend/internal/response"
	"github.com/examhall/examhall-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// failFromService maps engine errors to transport codes. This is the only
// place domain errors become HTTP.
func failFromService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrQuestionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrAlreadyStarted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyStarted)
	case errors.Is(err, service.ErrNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrNotStarted)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, service.ErrCannotResetCompleted):
		response.Fail(c, http.StatusConflict, response.ErrCannotResetCompleted)
	case errors.Is(err, service.ErrOutOfSequence):
		response.Fail(c, http.StatusConflict, response.ErrOutOfSequence)
	case errors.Is(err, service.ErrWindowClosed):
		response.Fail(c, http.StatusForbidden, response.ErrWindowClosed)
	case errors.Is(err, service.ErrWindowExpired):
		response.Fail(c, http.StatusForbidden, response.ErrWindowExpired)
	case errors.Is(err, service.ErrTimeExpired):
		response.Fail(c, http.StatusForbidden, response.ErrTimeExpired)
	case errors.Is(err, service.ErrWindowAlreadyOpen):
		response.Fail(c, http.StatusConflict, response.ErrWindowAlreadyOpen)
	case errors.Is(err, service.ErrWindowAlreadyClosed):
		response.Fail(c, http.StatusConflict, response.ErrWindowAlreadyClosed)
	case errors.Is(err, service.ErrStructuralWhileOpen):
		response.Fail(c, http.StatusConflict, response.ErrStructuralWhileOpen)
	case errors.Is(err, service.ErrInsufficientContent):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInsufficientContent)
	case errors.Is(err, service.ErrCorrectOptionOOB):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
