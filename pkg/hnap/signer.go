package hnap

import (
	"strconv"
	"time"
)

// AuthHeader is the per-request proof of possession of the session key. A
// fresh header is computed for every RPC; headers are never reused.
type AuthHeader struct {
	Digest    string
	Timestamp int64
}

// String renders the header value the way the modem expects it: digest,
// single space, epoch-seconds timestamp.
func (h AuthHeader) String() string {
	return h.Digest + " " + strconv.FormatInt(h.Timestamp, 10)
}

// Signer computes per-request authentication headers. It is a pure function
// of (session, action URI, clock); the clock is injectable for tests.
type Signer struct {
	now func() time.Time
}

// NewSigner creates a signer. A nil clock means time.Now.
func NewSigner(now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{now: now}
}

// Sign computes the authentication header for one request. The signed message
// is the timestamp followed by the quoted action URI; the SOAPAction header
// must carry the identical quoted string or the modem rejects the signature.
func (s *Signer) Sign(sess *Session, actionURI string) AuthHeader {
	ts := s.now().Unix()
	msg := strconv.FormatInt(ts, 10) + `"` + actionURI + `"`
	return AuthHeader{
		Digest:    HexHMACMD5([]byte(sess.PrivateKey), []byte(msg)),
		Timestamp: ts,
	}
}
