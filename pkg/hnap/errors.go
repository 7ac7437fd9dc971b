package hnap

import (
	"errors"
	"fmt"
)

// ErrSessionInvalid reports that the modem rejected the request signature or
// session cookie. A rejected signature and an expired cookie are not
// distinguishable on the wire; both collapse to this error and are handled by
// a single re-login.
var ErrSessionInvalid = errors.New("hnap: session invalid")

// NetworkError wraps a transport failure (timeout, refused connection) after
// all bounded retries are exhausted.
type NetworkError struct {
	Action string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error on %s: %v", e.Action, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError reports a failed login or a signature rejection that persisted
// across a fresh handshake. It is fatal for the current cycle and is never
// retried internally.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Reason }

// ProtocolError reports an unexpected response shape or result status. It
// usually means a firmware or protocol dialect mismatch and is not retried.
type ProtocolError struct {
	Action string
	Status string
	Detail string
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Status != "":
		return fmt.Sprintf("protocol error on %s: result %q", e.Action, e.Status)
	default:
		return fmt.Sprintf("protocol error on %s: %s", e.Action, e.Detail)
	}
}

// ParseError reports a malformed stat payload row. Entry is the zero-based
// index of the offending row within its delimited list so it can be located
// in the raw payload.
type ParseError struct {
	Entry  int
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse entry %d: %s", e.Entry, e.Reason)
	}
	return fmt.Sprintf("parse entry %d: field %s: %s (got %q)", e.Entry, e.Field, e.Reason, e.Value)
}
