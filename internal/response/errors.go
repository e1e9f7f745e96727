package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication / Authorization ────────────────────────────────
	ErrTokenRequired       ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid        ErrCode = "TOKEN_INVALID"
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session state machine ─────────────────────────────────────────
	ErrAlreadyStarted       ErrCode = "SESSION_ALREADY_STARTED"
	ErrNotStarted           ErrCode = "SESSION_NOT_STARTED"
	ErrAlreadyCompleted     ErrCode = "SESSION_ALREADY_COMPLETED"
	ErrCannotResetCompleted ErrCode = "CANNOT_RESET_COMPLETED"
	ErrOutOfSequence        ErrCode = "ANSWER_OUT_OF_SEQUENCE"

	// ─── Temporal gating ───────────────────────────────────────────────
	ErrWindowClosed        ErrCode = "WINDOW_CLOSED"
	ErrWindowExpired       ErrCode = "WINDOW_EXPIRED"
	ErrTimeExpired         ErrCode = "TIME_EXPIRED"
	ErrWindowAlreadyOpen   ErrCode = "WINDOW_ALREADY_OPEN"
	ErrWindowAlreadyClosed ErrCode = "WINDOW_ALREADY_CLOSED"
	ErrStructuralWhileOpen ErrCode = "STRUCTURAL_CHANGE_WHILE_OPEN"

	// ─── Generation ────────────────────────────────────────────────────
	ErrInsufficientContent ErrCode = "INSUFFICIENT_CONTENT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid id format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	case ErrAlreadyStarted:
		return "Your exam has already been started."
	case ErrNotStarted:
		return "Your exam has not been started yet."
	case ErrAlreadyCompleted:
		return "Your exam is already completed."
	case ErrCannotResetCompleted:
		return "A completed session cannot be reset."
	case ErrOutOfSequence:
		return "Answers must be submitted in order, one per question."

	case ErrWindowClosed:
		return "The testing window is currently closed."
	case ErrWindowExpired:
		return "The testing window has expired."
	case ErrTimeExpired:
		return "Your allotted exam time has expired."
	case ErrWindowAlreadyOpen:
		return "The testing window is already open."
	case ErrWindowAlreadyClosed:
		return "The testing window is already closed."
	case ErrStructuralWhileOpen:
		return "Duration and question count cannot change while the window is open."

	case ErrInsufficientContent:
		return "There are not enough questions to generate an exam."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
