package route

import "fmt"

// ValidationError indicates invalid caller-supplied input.
type ValidationError struct {
	Message string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// Error returns the validation message.
func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError indicates a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Error describes the missing resource.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError indicates the request clashes with current state, such as
// the active session cap being reached.
type ConflictError struct {
	Message string
}

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// Error returns the conflict message.
func (e *ConflictError) Error() string {
	return e.Message
}

// InvalidTransitionError indicates a phase change the state machine forbids.
type InvalidTransitionError struct {
	From Phase
	To   Phase
}

// NewInvalidTransitionError creates a new InvalidTransitionError.
func NewInvalidTransitionError(from, to Phase) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// Error describes the rejected transition.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid phase transition from %s to %s", e.From, e.To)
}
