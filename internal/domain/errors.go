package domain

import "errors"

var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateGroup is returned when a group name is taken and no override was requested.
	ErrDuplicateGroup = errors.New("group name already exists")
	// ErrInsufficientQuestions indicates the group cannot be served enough fresh questions.
	ErrInsufficientQuestions = errors.New("not enough available questions")
	// ErrNoAvailableQuestions indicates every question at a level was already answered by the group.
	ErrNoAvailableQuestions = errors.New("no available questions")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Invalid builds a ValidationError.
func Invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

// DatabaseError wraps a storage failure with the operation that hit it.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// StoreError wraps err as a DatabaseError unless it is nil or a domain sentinel
// that callers are expected to branch on.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return &DatabaseError{Op: op, Err: err}
}
