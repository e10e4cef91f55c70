// Package transport implements the HTTP client used to talk to the
// Augment API: retry-with-backoff, a per-endpoint circuit breaker, and
// an authenticated http.Client wired through golang.org/x/oauth2.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/oauth2"

	"github.com/augmentcode/codesync/internal/debug"
	"github.com/augmentcode/codesync/internal/errors"
)

const (
	defaultTimeout   = 30 * time.Second
	maxRetries       = 3 // 4 total attempts
	retryBaseDelay   = 1 * time.Second
	jitterDivisor    = 4 // up to 25% of the base delay
	breakerResetTime = 60 * time.Second
)

// Error is returned for responses that complete but carry a non-2xx status
// the caller should inspect.
type Error struct {
	Status     Status
	HTTPStatus int
	Body       []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("request failed with status %d", e.HTTPStatus)
}

// Client talks to a single Augment API base URL with retry, jitter and a
// per-endpoint circuit breaker layered over an authenticated http.Client.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string

	breakers *xsync.MapOf[string, *breakerState]
}

type breakerState struct {
	trippedAt time.Time
}

// Config holds the fields needed to construct a Client.
type Config struct {
	BaseURL     string
	Token       string
	UserAgent   string
	RequestTLS  *http.Transport
	HTTPTimeout time.Duration
}

// New builds a Client. When cfg.Token is non-empty, every request carries an
// Authorization: Bearer header via oauth2's static token source.
func New(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	base := &http.Transport{}
	if cfg.RequestTLS != nil {
		base = cfg.RequestTLS
	}

	httpClient := &http.Client{Transport: base, Timeout: timeout}
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
		baseCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		httpClient = oauth2.NewClient(baseCtx, src)
		httpClient.Timeout = timeout
		httpClient.Transport = &oauthTransportWrapper{base: base, wrapped: httpClient.Transport}
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		http:      httpClient,
		userAgent: cfg.UserAgent,
		breakers:  xsync.NewMapOf[string, *breakerState](),
	}
}

// oauthTransportWrapper lets us keep a caller-supplied base RoundTripper
// (e.g. for TLS config) underneath oauth2's token-injecting transport.
type oauthTransportWrapper struct {
	base    http.RoundTripper
	wrapped http.RoundTripper
}

func (w *oauthTransportWrapper) RoundTrip(req *http.Request) (*http.Response, error) {
	return w.wrapped.RoundTrip(req)
}

// Do sends a request to path with the given JSON body, retrying transient
// failures with jittered exponential backoff, and returns the raw response
// body on success. requestID and sessionID are attached as headers.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, requestID, sessionID string) ([]byte, error) {
	if tripped, wait := c.breakerTripped(path); tripped {
		return nil, errors.Errorf("circuit open for %s, retry after %s", path, wait)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryBaseDelay
	bo.Multiplier = 2
	// jitter is added by jitteredBackOff only
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // bounded by maxRetries below, not by elapsed time

	var respBody []byte
	var attempt int

	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if requestID != "" {
			req.Header.Set("x-request-id", requestID)
		}
		if sessionID != "" {
			req.Header.Set("x-request-session-id", sessionID)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			debug.Log("request to %v failed (attempt %d): %v", path, attempt, err)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err // retriable: connect/timeout/send error
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			respBody = data
			return nil
		}

		status := classify(resp.StatusCode)
		if status.IsFatal() || !isRetriableStatus(resp.StatusCode) {
			return backoff.Permanent(&Error{Status: status, HTTPStatus: resp.StatusCode, Body: data})
		}

		debug.Log("retriable status %d from %v (attempt %d)", resp.StatusCode, path, attempt)
		return &Error{Status: status, HTTPStatus: resp.StatusCode, Body: data}
	}

	err := backoff.Retry(op, backoff.WithMaxRetries(&jitteredBackOff{delegate: bo}, maxRetries))
	if err != nil {
		c.recordFailure(path)
		return nil, err
	}

	c.recordSuccess(path)
	return respBody, nil
}

// jitteredBackOff adds up to 25% extra delay on top of an exponential
// backoff.ExponentialBackOff, since backoff/v4's own RandomizationFactor
// produces a +/- spread rather than the one-directional jitter used here.
type jitteredBackOff struct {
	delegate *backoff.ExponentialBackOff
}

func (j *jitteredBackOff) NextBackOff() time.Duration {
	base := j.delegate.NextBackOff()
	if base == backoff.Stop {
		return backoff.Stop
	}
	jitter := time.Duration(rand.Int63n(int64(base)/jitterDivisor + 1))
	return base + jitter
}

func (j *jitteredBackOff) Reset() {
	j.delegate.Reset()
}

// breakerTripped reports whether path's circuit breaker is currently open.
func (c *Client) breakerTripped(path string) (bool, time.Duration) {
	state, ok := c.breakers.Load(path)
	if !ok {
		return false, 0
	}
	elapsed := time.Since(state.trippedAt)
	if elapsed >= breakerResetTime {
		c.breakers.Delete(path)
		return false, 0
	}
	return true, breakerResetTime - elapsed
}

func (c *Client) recordFailure(path string) {
	c.breakers.Store(path, &breakerState{trippedAt: time.Now()})
}

func (c *Client) recordSuccess(path string) {
	c.breakers.Delete(path)
}
