// Package reject holds the outcomes that are reported back to the user who triggered them rather than treated as
// failures of the bot.
package reject

import (
	"errors"
	"fmt"
)

// Reason is the category of a rejection.
type Reason int

const (
	// ReasonNotFound means a channel, category, role or mapping could not be found.
	ReasonNotFound Reason = iota + 1

	// ReasonUnauthorized means the user is missing a required role.
	ReasonUnauthorized

	// ReasonDuplicate means the user already has what they asked to create.
	ReasonDuplicate

	// ReasonConflict means the request does not fit the current state.
	ReasonConflict
)

func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonUnauthorized:
		return "unauthorized"
	case ReasonDuplicate:
		return "duplicate"
	case ReasonConflict:
		return "conflict"
	}
	return fmt.Sprintf("unknown_reason_(%d)", int(r))
}

// Error is a rejection. Message is shown to the user as is.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// NotFound creates a not found rejection.
func NotFound(format string, args ...any) error {
	return &Error{Reason: ReasonNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized rejection.
func Unauthorized(format string, args ...any) error {
	return &Error{Reason: ReasonUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Duplicate creates a duplicate rejection.
func Duplicate(format string, args ...any) error {
	return &Error{Reason: ReasonDuplicate, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict rejection.
func Conflict(format string, args ...any) error {
	return &Error{Reason: ReasonConflict, Message: fmt.Sprintf(format, args...)}
}

// From returns the rejection wrapped in err, if any.
func From(err error) (*Error, bool) {
	var rej *Error
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Is reports whether err is a rejection with the given reason.
func Is(err error, reason Reason) bool {
	rej, ok := From(err)
	return ok && rej.Reason == reason
}
