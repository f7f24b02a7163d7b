package repository

import "errors"

var (
	// ErrNotFound indicates an entity was not located.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a uniqueness constraint rejected a write.
	ErrConflict = errors.New("repository: conflict")
	// ErrAlreadyVoted indicates the voter has a committed vote on record.
	ErrAlreadyVoted = errors.New("repository: already voted")
	// ErrUnknownCandidate indicates the named candidate is not on the roster.
	ErrUnknownCandidate = errors.New("repository: unknown candidate")
	// ErrUnavailable indicates a transient storage failure; the whole
	// operation rolled back and may be retried.
	ErrUnavailable = errors.New("repository: storage unavailable")
)
