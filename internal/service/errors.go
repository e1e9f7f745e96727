package service

import "errors"

// Domain errors returned by the exam engine. The handler layer maps these to
// transport codes; the engine never sees HTTP.
var (
	ErrSessionNotFound  = errors.New("no session exists for this candidate")
	ErrQuestionNotFound = errors.New("question not found")
	ErrCorrectOptionOOB = errors.New("correct_option is out of range for the option list")

	ErrAlreadyStarted       = errors.New("session has already been started")
	ErrNotStarted           = errors.New("session has not been started")
	ErrAlreadyCompleted     = errors.New("session is already completed")
	ErrCannotResetCompleted = errors.New("completed sessions cannot be reset")

	ErrOutOfSequence = errors.New("answer position does not match the current question")

	ErrWindowClosed        = errors.New("testing window is closed")
	ErrWindowExpired       = errors.New("testing window has expired")
	ErrTimeExpired         = errors.New("allotted exam time has expired")
	ErrWindowAlreadyOpen   = errors.New("testing window is already open")
	ErrWindowAlreadyClosed = errors.New("testing window is already closed")
	ErrStructuralWhileOpen = errors.New("structural window fields cannot change while open")
	ErrInsufficientContent = errors.New("no active questions available to generate a session")
)
