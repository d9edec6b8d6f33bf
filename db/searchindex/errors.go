package searchindex

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedIndex = errors.New("malformed search index")
	ErrOutOfRange     = errors.New("document index out of range")
)

// MalformedIndexError is returned by Load when a required key is missing,
// has the wrong shape, or refers outside the document table.
type MalformedIndexError struct {
	Key    string
	Reason string
}

type OutOfRangeError struct {
	Index int
	Size  int
}

func (e *MalformedIndexError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("malformed search index: %s", e.Reason)
	}
	return fmt.Sprintf("malformed search index: key '%s' %s", e.Key, e.Reason)
}

func (e *MalformedIndexError) Is(target error) bool {
	return target == ErrMalformedIndex
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("document index %d out of range for %d documents", e.Index, e.Size)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func malformed(key string, format string, args ...any) *MalformedIndexError {
	return &MalformedIndexError{Key: key, Reason: fmt.Sprintf(format, args...)}
}
