package hnap

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Placeholder key used to sign requests before a session exists. The firmware
// expects exactly this string on the challenge request.
const undefinedPrivateKey = "withoutloginkey"

const endpointPath = "/HNAP1/"

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration
	// AcceptInvalidCerts disables TLS verification. Modems ship self-signed
	// certificates, so HTTPS targets usually need this.
	AcceptInvalidCerts bool
	// MaxAttempts caps transport attempts per RPC.
	MaxAttempts int
	// Backoff is the base delay between transport retries (linear).
	Backoff time.Duration
	// Clock overrides the signing clock, for tests.
	Clock func() time.Time
}

// Client speaks the HNAP protocol against a single modem. It owns at most one
// live session at a time and is not safe for concurrent use: the modem
// serializes sessions by cookie, so concurrent scrapes against one device
// would invalidate each other.
type Client struct {
	http     *http.Client
	endpoint string
	cred     Credential
	signer   *Signer

	session *Session

	maxAttempts int
	backoff     time.Duration
}

// NewClient creates a client for the modem at address (scheme + host, e.g.
// "https://192.168.100.1").
func NewClient(address string, cred Credential, opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff == 0 {
		opts.Backoff = 500 * time.Millisecond
	}

	transport := http.DefaultTransport
	if opts.AcceptInvalidCerts {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		endpoint:    strings.TrimRight(address, "/") + endpointPath,
		cred:        cred,
		signer:      NewSigner(opts.Clock),
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
	}
}

// Call issues a signed action against the modem, logging in first if no
// session is live. A single session rejection triggers one full re-login and
// one retry; a second rejection surfaces as an AuthError without further
// RPCs, so a misconfigured credential cannot loop.
func (c *Client) Call(ctx context.Context, action string, params any, out Reply) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	err := c.attempt(ctx, action, params, out)
	if !errors.Is(err, ErrSessionInvalid) {
		return err
	}

	// The previous session is dead; drop it and build a fresh one.
	c.session = nil
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	err = c.attempt(ctx, action, params, out)
	if errors.Is(err, ErrSessionInvalid) {
		return &AuthError{Reason: "request rejected twice with a fresh session"}
	}
	return err
}

// Stats issues the batched status call used by a scrape cycle.
func (c *Client) Stats(ctx context.Context) (*MultipleHNAPsReply, error) {
	params := make(map[string]string, len(statsSubActions))
	for _, sub := range statsSubActions {
		params[sub] = ""
	}

	var reply MultipleHNAPsReply
	if err := c.Call(ctx, ActionMultipleHNAPs, params, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// Logs fetches the modem event log.
func (c *Client) Logs(ctx context.Context) (*MultipleHNAPsLogReply, error) {
	params := map[string]string{"GetCustomerStatusLog": ""}

	var reply MultipleHNAPsLogReply
	if err := c.Call(ctx, ActionMultipleHNAPs, params, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	if c.session != nil {
		return nil
	}
	sess, err := c.login(ctx)
	if err != nil {
		return err
	}
	c.session = sess
	return nil
}

// attempt sends one signed RPC and interprets its result status.
func (c *Client) attempt(ctx context.Context, action string, params any, out Reply) error {
	if err := c.do(ctx, action, params, c.session, out); err != nil {
		return err
	}
	switch code := out.resultCode(); code {
	case resultOK, "":
		return nil
	case resultUnauthorized:
		return ErrSessionInvalid
	default:
		return &ProtocolError{Action: action, Status: code}
	}
}

// do sends a single signed RPC with bounded transport retries and unwraps the
// response envelope into out. Transport retries re-sign the request each
// attempt; they do not touch the session.
func (c *Client) do(ctx context.Context, action string, params any, sess *Session, out any) error {
	if params == nil {
		params = struct{}{}
	}
	body, err := json.Marshal(map[string]any{action: params})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", action, err)
	}

	actionURI := SOAPDomain + action

	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &NetworkError{Action: action, Err: ctx.Err()}
			case <-time.After(c.backoff * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build %s request: %w", action, err)
		}
		auth := c.signer.Sign(sess, actionURI)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("SOAPAction", `"`+actionURI+`"`)
		req.Header.Set("HNAP_AUTH", auth.String())
		req.Header.Set("Cookie", fmt.Sprintf("uid=%s; PrivateKey=%s", sess.Cookie, sess.PrivateKey))

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &NetworkError{Action: action, Err: ctx.Err()}
			}
			lastErr = err
			continue
		}
		return decodeEnvelope(action, resp, out)
	}
	return &NetworkError{Action: action, Err: lastErr}
}

// decodeEnvelope maps the HTTP status and unwraps {<action>Response: {...}}.
func decodeEnvelope(action string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return ErrSessionInvalid
	default:
		io.Copy(io.Discard, resp.Body)
		return &ProtocolError{Action: action, Detail: fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode)}
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &ProtocolError{Action: action, Detail: fmt.Sprintf("malformed response JSON: %v", err)}
	}
	raw, ok := envelope[action+"Response"]
	if !ok {
		return &ProtocolError{Action: action, Detail: "envelope missing " + action + "Response"}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ProtocolError{Action: action, Detail: fmt.Sprintf("malformed %sResponse: %v", action, err)}
	}
	return nil
}
