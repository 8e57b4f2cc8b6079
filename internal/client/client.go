package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/markis/bizcoach/internal/config"
	"github.com/markis/bizcoach/internal/logging"
	"github.com/markis/bizcoach/internal/segment"
	"github.com/markis/bizcoach/internal/server"
	"github.com/markis/bizcoach/internal/stream"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrQuotaExceeded = errors.New("daily limit reached")
	ErrRequestFailed = errors.New("chat request failed")
	// ErrEmptyResponse means the response carried none of the schema's tags.
	ErrEmptyResponse = errors.New("response carried no sections")
)

// RequestError describes a non-200 answer from the server.
type RequestError struct {
	Status  int
	Message string
	Detail  string
	Limit   int
	Err     error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("request failed with status %d", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// getHTTPClient returns a singleton HTTP client
var (
	httpClient     *http.Client
	httpClientOnce sync.Once
)

func getHTTPClient(ctx context.Context, timeout time.Duration) *http.Client {
	httpClientOnce.Do(func() {
		transport := &http.Transport{
			MaxIdleConns:      100,
			IdleConnTimeout:   90 * time.Second,
			ForceAttemptHTTP2: true,
		}

		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext

		httpClient = &http.Client{
			Transport: transport,
		}
	})

	clientCopy := *httpClient
	if deadline, ok := ctx.Deadline(); ok {
		clientCopy.Timeout = time.Until(deadline)
		return &clientCopy
	}
	clientCopy.Timeout = timeout
	return &clientCopy
}

// Client talks to the coaching server.
type Client struct {
	baseURL string
	userID  string
	timeout time.Duration
	schema  segment.Schema
}

// New returns a client that parses responses with schema. The schema must match
// the one the server prompts with.
func New(cfg config.ClientConfig, schema segment.Schema) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		userID:  cfg.UserID,
		timeout: cfg.Timeout,
		schema:  schema,
	}
}

// Ask sends one chat turn and segments the streamed response. onSection, which may be
// nil, receives a snapshot each time a section's content changes. The returned
// snapshot is the state after the stream ended; on a mid-stream failure it holds
// whatever arrived before the error.
func (c *Client) Ask(ctx context.Context, req server.ChatRequest, onSection func(segment.Snapshot)) (segment.Snapshot, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return segment.Snapshot{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return segment.Snapshot{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")
	if c.userID != "" {
		httpReq.Header.Set(server.UserHeader, c.userID)
	}

	resp, err := getHTTPClient(ctx, c.timeout).Do(httpReq)
	if err != nil {
		return segment.Snapshot{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debugf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return segment.Snapshot{}, classify(resp)
	}

	seg := segment.New(c.schema, onSection)
	parser := stream.NewParser(ctx)
	go parser.Process(resp.Body)

	if err := stream.Feed(parser.Chunks(), seg); err != nil {
		return seg.State(), fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	state := seg.State()
	if state.IsEmpty() {
		return state, ErrEmptyResponse
	}
	return state, nil
}

// classify turns a non-200 response into a *RequestError wrapping the matching
// sentinel error.
func classify(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	reqErr := &RequestError{Status: resp.StatusCode}
	var e server.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		reqErr.Message = e.Error
		reqErr.Detail = e.Detail
		reqErr.Limit = e.Limit
	} else {
		reqErr.Message = strings.TrimSpace(string(body))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		reqErr.Err = ErrUnauthorized
	case http.StatusTooManyRequests:
		reqErr.Err = ErrQuotaExceeded
	default:
		reqErr.Err = ErrRequestFailed
	}
	return reqErr
}
