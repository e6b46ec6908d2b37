package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	requestIDHeader = "X-Request-ID"
	contentTypeJSON = "application/json"
	maxErrorBody    = 64 << 10
)

// Client talks to the remote notes API. Anonymous calls (login) use the
// base HTTP client; everything else goes through an oauth2.Transport that
// attaches the session's bearer token.
type Client struct {
	baseURL string
	anon    *http.Client
	authed  *http.Client
	logger  zerolog.Logger
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// WithHTTPClient sets the base HTTP client (e.g. an httptest server client).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = c
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// New creates a client for the API rooted at baseURL. tokens supplies the
// bearer token for authenticated calls.
func New(baseURL string, tokens oauth2.TokenSource, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.New] base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("[api.New] invalid base URL: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("[api.New] token source is required")
	}

	opts := clientOptions{
		httpClient: &http.Client{},
		timeout:    15 * time.Second,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(&opts)
	}

	base := opts.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anon: &http.Client{
			Transport: base,
			Timeout:   opts.timeout,
		},
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: base},
			Timeout:   opts.timeout,
		},
		logger: opts.logger,
	}, nil
}

// call describes one API round-trip
type call struct {
	op         string // Operation name used in errors and logs
	method     string
	path       string
	in         any    // Request body, nil for none
	out        any    // Decoded response body, nil to discard
	defaultMsg string // Used when the error body carries no message
	errorFirst bool   // Prefer the body's error field over message
}

// do sends a JSON request and decodes a JSON response into c.out. Non-2xx
// responses become *RemoteError carrying the body's message.
func (c *Client) do(ctx context.Context, hc *http.Client, cl call) error {
	op, method, path := cl.op, cl.method, cl.path
	var body io.Reader
	if cl.in != nil {
		data, err := json.Marshal(cl.in)
		if err != nil {
			return apperrors.Wrapf(err, "[%s] encode request", op)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.Wrapf(err, "[%s] build request", op)
	}
	requestID := uuid.New().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", contentTypeJSON)
	if cl.in != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	logger := c.logger.With().Str("op", op).Str("request_id", requestID).Logger()
	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("request failed")
		if errors.Is(err, apperrors.ErrNotAuthenticated) {
			return apperrors.ErrNotAuthenticated
		}
		return &apperrors.RemoteError{Op: op, Message: cl.defaultMsg + ": " + err.Error()}
	}
	defer resp.Body.Close()

	logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msgf("%s %s", method, path)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperrors.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body, cl.defaultMsg, cl.errorFirst),
		}
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// An empty success body leaves out untouched.
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
		return &apperrors.RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func errorMessage(body io.Reader, defaultMsg string, errorFirst bool) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return defaultMsg
	}
	var eb ErrorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return defaultMsg
	}
	first, second := eb.Message, eb.Error
	if errorFirst {
		first, second = second, first
	}
	switch {
	case first != "":
		return first
	case second != "":
		return second
	}
	return defaultMsg
}
