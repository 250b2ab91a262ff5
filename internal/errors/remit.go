package errors

var (
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "resource not found",
	}
	ErrInvalidState = &DomainError{
		Code:    CodeInvalidState,
		Message: "operation not allowed in current state",
	}
	ErrAmountOutOfBounds = &DomainError{
		Code:    CodeAmountOutOfBounds,
		Message: "amount outside permitted limits",
	}
	ErrValidation = &DomainError{
		Code:    CodeValidation,
		Message: "invalid request",
	}
	ErrExternalService = &DomainError{
		Code:    CodeExternalService,
		Message: "external service failure",
	}
	ErrCorridorUnavailable = &DomainError{
		Code:    CodeCorridorUnavailable,
		Message: "corridor not available",
	}
)
