package domain

import "errors"

var (
	// ErrValidation covers malformed or missing request fields, including a
	// due time that is not in the future.
	ErrValidation = errors.New("validation failed")

	// ErrUserNotFound means the owner reference resolved to no credential.
	ErrUserNotFound = errors.New("user not found")

	// ErrMessageNotFound means no scheduled message row matched.
	ErrMessageNotFound = errors.New("scheduled message not found")

	// ErrNotCancellable is reported uniformly when a cancel matched no
	// pending row: wrong owner, already terminal, or nonexistent id. The
	// cases are deliberately indistinguishable to the caller.
	ErrNotCancellable = errors.New("message not found or not cancellable")
)
