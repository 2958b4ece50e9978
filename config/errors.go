package config

import (
	"errors"
	"strings"
)

var (
	// ErrMissing is matched by *MissingError.
	ErrMissing = errors.New("config: missing required configuration")

	// ErrInvalidURL is returned when the base URL cannot be used.
	ErrInvalidURL = errors.New("config: invalid base url")
)

// MissingError lists every required setting that is absent.
type MissingError struct {
	Fields []string
}

func (e *MissingError) Error() string {
	return "config: missing required environment variables: " + strings.Join(e.Fields, ", ")
}

// Is implements errors.Is for sentinel error matching.
func (e *MissingError) Is(target error) bool {
	return target == ErrMissing
}
