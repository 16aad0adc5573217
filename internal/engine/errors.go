package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures so the command layer can phrase them
// without inspecting message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidPhase
	KindPermissionDenied
	KindResourceExhausted
	KindConflict
)

// Error is a structured engine failure. Candidates is populated for
// ambiguous target matches so callers can prompt the player.
type Error struct {
	Kind       Kind
	Message    string
	Candidates []string
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf extracts the failure kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func notFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidPhasef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidPhase, Message: fmt.Sprintf(format, args...)}
}

func deniedf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

func exhaustedf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindResourceExhausted, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func ambiguousTarget(query string, candidates []string) *Error {
	return &Error{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf("multiple players match %q: %s", query, strings.Join(candidates, ", ")),
		Candidates: candidates,
	}
}
