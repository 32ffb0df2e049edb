package util

import "errors"

var (
	// ErrNotAuthenticated means no active session; callers fail fast and never retry.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStoreUnavailable wraps transport and query failures of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotFound is an absence, not a failure. Readers treat it as zero records.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate         = errors.New("duplicate record")
	ErrInvalidProgress   = errors.New("progress percentage must be between 0 and 100")
	ErrInvalidLesson     = errors.New("lesson index out of range")
	ErrCourseNotFound    = errors.New("course not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrAlreadyRegistered = errors.New("already registered for event")
)
