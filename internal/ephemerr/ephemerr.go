// Package ephemerr defines the error kinds surfaced by the ephemeris core.
// Every failure from the propagation session, the approximate ephemeris and
// the event cursors is an *Error carrying one Kind, so callers can branch
// with errors.Is against the Kind sentinels.
package ephemerr

import (
	"errors"
	"fmt"
)

// Kind classifies a core failure.
type Kind int

const (
	// Initialization: the propagation engine could not be set up.
	Initialization Kind = iota + 1
	// Propagation: advancing a session or reading a body state failed.
	Propagation
	// FrameConversion: a frame or coordinate transform failed.
	FrameConversion
	// SearchNotFound: a search found no event within its horizon.
	SearchNotFound
	// SearchFailure: a search diverged or produced an inconsistent sequence.
	SearchFailure
	// NotInitialized: the operation needs a session that has been released.
	NotInitialized
)

var kindNames = map[Kind]string{
	Initialization:  "initialization",
	Propagation:     "propagation",
	FrameConversion: "frame conversion",
	SearchNotFound:  "search not found",
	SearchFailure:   "search failure",
	NotInitialized:  "not initialized",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Error is a classified core error. Op names the failing operation and Err
// holds the underlying cause, which may be nil.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a Kind target or another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// New wraps err as a core error of the given kind.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
