package review

import "errors"

// Sentinel errors for the review package. Check them with errors.Is.
var (
	// ErrInvalidInput is returned for malformed keys or outcomes. Nothing is written.
	ErrInvalidInput = errors.New("review: invalid input")
	// ErrModeMismatch is returned when an outcome does not match the item's scheduling mode.
	// It also matches ErrInvalidInput.
	ErrModeMismatch error = &modeMismatchError{}
	// ErrNotFound is returned by Repository.Find for unknown keys.
	ErrNotFound = errors.New("review: item not found")
	// ErrConcurrencyConflict is returned by a repository write that lost an optimistic version check.
	ErrConcurrencyConflict = errors.New("review: concurrent update conflict")
	// ErrRetryExhausted is returned when conflicting writers kept winning for every attempt.
	ErrRetryExhausted = errors.New("review: retries exhausted")
	// ErrStorageUnavailable wraps failures of the storage collaborator.
	ErrStorageUnavailable = errors.New("review: storage unavailable")
)

type modeMismatchError struct{}

func (*modeMismatchError) Error() string {
	return "review: outcome does not match the item scheduling mode"
}

func (*modeMismatchError) Is(target error) bool {
	return target == ErrInvalidInput
}
