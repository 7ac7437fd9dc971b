package hnap

import "time"

// Credential holds the modem admin login. Created once from configuration and
// never mutated. The password must not appear in logs.
type Credential struct {
	Username string
	Password string
}

// Session is the authenticated state produced by a successful login
// handshake. PrivateKey is the shared secret derived from the challenge
// material; it signs every request for the session's lifetime and never
// changes. The session is owned by exactly one Client and is replaced, not
// mutated, when the modem rejects it.
type Session struct {
	PrivateKey    string
	Cookie        string
	EstablishedAt time.Time
}
