// Package errors provides error handling for slideinspo.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints
//
// Usage:
//
//	if err := store.Verify(ctx); err != nil {
//	    return errors.Wrap(errors.ErrGraphUnavailable, err.Error())
//	}
//
//	if errors.Is(err, errors.ErrMalformedStoryline) {
//	    // ask the user to re-submit
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Pipeline sentinel errors. Wrap these with errors.Wrap() to add context
// while keeping errors.Is() working.
var (
	// ErrGraphUnavailable means the slide graph could not be reached or queried.
	// Without a graph context no slide can be resolved, so callers treat it as fatal.
	ErrGraphUnavailable = New("graph unavailable")

	// ErrMalformedStoryline means the model answer was not a storyline of the requested shape
	ErrMalformedStoryline = New("malformed storyline")

	// ErrNotFound means no slide identifier could be resolved for a storypoint
	ErrNotFound = New("not found")

	// ErrTransport means an outbound model call failed
	ErrTransport = New("transport error")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsTransport reports whether err is or wraps ErrTransport.
func IsTransport(err error) bool {
	return err != nil && Is(err, ErrTransport)
}

// IsGraphUnavailable reports whether err is or wraps ErrGraphUnavailable.
func IsGraphUnavailable(err error) bool {
	return err != nil && Is(err, ErrGraphUnavailable)
}

// IsMalformedStoryline reports whether err is or wraps ErrMalformedStoryline.
func IsMalformedStoryline(err error) bool {
	return err != nil && Is(err, ErrMalformedStoryline)
}

// IsInvalidRequest reports whether err is or wraps ErrInvalidRequest.
func IsInvalidRequest(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// MarkTransport tags err as a transport failure while keeping its message and cause chain.
func MarkTransport(err error) error {
	if err == nil {
		return nil
	}
	return Mark(err, ErrTransport)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// NewMalformedStoryline creates a malformed-storyline error with a formatted message
func NewMalformedStoryline(format string, args ...interface{}) error {
	return Wrap(ErrMalformedStoryline, Newf(format, args...).Error())
}
