package domain

import "errors"

var (
	// ErrUnauthorized caller is not a participant of the room
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound room / message / property does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument empty body, malformed id
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict duplicate insert on a unique key
	ErrConflict = errors.New("conflict")
	// ErrUnavailable store kept failing after retries
	ErrUnavailable = errors.New("store unavailable")
)
