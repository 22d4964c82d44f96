package probe

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrInvalidTimeout is returned when a caller asks for a zero length bound.
	ErrInvalidTimeout = errors.New("cannot set a 0 duration timeout")
	// ErrTimedOut is returned when an attempt's own bound elapsed first.
	ErrTimedOut = errors.New("connect timed out")
	// ErrUnresolvable is returned when a target has no usable address.
	ErrUnresolvable = errors.New("target did not resolve to any address")
)

// Kind labels the transport error behind a failed attempt.
type Kind string

const (
	KindNone         Kind = ""
	KindTimedOut     Kind = "timed_out"
	KindUnresolvable Kind = "unresolvable"
	KindRefused      Kind = "refused"
	KindUnreachable  Kind = "unreachable"
	KindReset        Kind = "reset"
	KindTransport    Kind = "transport"
)

// KindOf returns the label for err. A nil error has KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrTimedOut):
		return KindTimedOut
	case errors.Is(err, ErrUnresolvable):
		return KindUnresolvable
	case errors.Is(err, syscall.ECONNREFUSED):
		return KindRefused
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return KindUnreachable
	case errors.Is(err, syscall.ECONNRESET):
		return KindReset
	}
	return KindTransport
}

// TargetError is the failure of a single connection attempt.
type TargetError struct {
	Target Target
	Kind   Kind
	Err    error
}

func newTargetError(t Target, err error) *TargetError {
	return &TargetError{Target: t, Kind: KindOf(err), Err: err}
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Target, e.Err)
}

func (e *TargetError) Unwrap() error { return e.Err }

// CheckError is returned when both the primary and the backup failed.
// It unwraps to the primary's error only.
type CheckError struct {
	Primary error
	Backup  error
}

func (e *CheckError) Error() string {
	return "offline: " + e.Primary.Error()
}

func (e *CheckError) Unwrap() error { return e.Primary }
