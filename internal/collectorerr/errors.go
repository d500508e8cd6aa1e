// Package collectorerr defines the error taxonomy shared across the
// collector: each kind wraps an underlying cause and carries enough
// context for the log line that reports it.
package collectorerr

import (
	"errors"
	"fmt"
)

// Kind tags an error with one of the categories the daemon distinguishes
// at its boundaries (Ingress, Processor, startup).
type Kind string

const (
	// KindTransport covers UDP read/write failures. Logged; never stops the daemon.
	KindTransport Kind = "transport"
	// KindParse covers unsupported or malformed log lines. Logged at debug; datagram dropped.
	KindParse Kind = "parse"
	// KindAuth covers an unknown sender in non-dev mode. Logged at warn; datagram dropped.
	KindAuth Kind = "auth"
	// KindIdentity covers required meta missing on an event that needs it.
	KindIdentity Kind = "identity"
	// KindStore covers any Store call failure.
	KindStore Kind = "store"
	// KindConfig covers missing or invalid required settings at startup. Fatal.
	KindConfig Kind = "config"
)

// Error is the concrete error type returned at component boundaries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Transport(msg string, err error) *Error { return newErr(KindTransport, msg, err) }
func Parse(msg string, err error) *Error     { return newErr(KindParse, msg, err) }
func Auth(msg string, err error) *Error      { return newErr(KindAuth, msg, err) }
func Identity(msg string, err error) *Error  { return newErr(KindIdentity, msg, err) }
func Store(msg string, err error) *Error     { return newErr(KindStore, msg, err) }
func Config(msg string, err error) *Error    { return newErr(KindConfig, msg, err) }

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}
