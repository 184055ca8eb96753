package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"chat-client/internal/logging"
	"chat-client/internal/observability"
	"chat-client/internal/session"
	"chat-client/internal/telemetry"
)

const maxErrorBody = 4 << 10

// Client calls the job-board chat endpoints on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	session session.Session
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-call timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New constructs a Client rooted at baseURL.
func New(baseURL string, sess session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() session.Session {
	return c.session
}

// do issues one call. route is the path template used for metrics and spans.
func (c *Client) do(ctx context.Context, method, route, path string, in, out any) (err error) {
	ctx = telemetry.NewRequest(ctx)
	requestID := telemetry.RequestIDFromContext(ctx)

	ctx, span := observability.StartSpan(ctx, method+" "+route,
		attribute.String("http.method", method),
		attribute.String("http.route", route),
	)
	defer func() { observability.EndSpan(span, err) }()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", route, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", route, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.AddCookie(&http.Cookie{Name: c.session.Cookie(), Value: c.session.Token})
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.ObserveAPICall(method, route, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()
	observability.ObserveAPICall(method, route, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	logger := logging.Ctx(ctx)
	logger.Debug().
		Str("method", method).
		Str("route", route).
		Int("status", resp.StatusCode).
		Str(logging.FieldRequest, requestID).
		Dur("elapsed", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, route)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", route, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", route, err)
	}
	return nil
}

func decodeError(resp *http.Response, route string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &Error{StatusCode: resp.StatusCode, Route: route}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "<") {
		apiErr.Message = text
	}
	return apiErr
}
