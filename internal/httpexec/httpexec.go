// Package httpexec sends statements to the remote SQL-over-HTTP endpoint.
package httpexec

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

	"github.com/rowbase/rowbase-go/internal/debug"
	"github.com/rowbase/rowbase-go/internal/version"
	"github.com/rowbase/rowbase-go/query"
)

var (
	// ErrInvalidConfig is returned by New for unusable settings.
	ErrInvalidConfig = errors.New("invalid http executor config")

	// ErrIncompatibleServer is returned when the server is older than the configured minimum.
	ErrIncompatibleServer = errors.New("incompatible server version")

	// ErrRetryExhausted is returned when every attempt failed with a retryable error.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// Config configures an Executor.
type Config struct {
	BaseURL          string
	APIKey           string
	Timeout          time.Duration
	MinServerVersion string
	Retry            RetryPolicy
	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Executor implements query.Executor over HTTP.
type Executor struct {
	endpoint   string
	apiKey     string
	minVersion string
	retry      RetryPolicy
	client     *http.Client
}

// New validates cfg and builds an Executor.
func New(cfg Config) (*Executor, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q is not absolute", ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.MinServerVersion != "" {
		if err := version.Validate(cfg.MinServerVersion); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 && policy.BackoffFactor == 0 {
		policy = DefaultRetryPolicy()
	}

	return &Executor{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/query",
		apiKey:     cfg.APIKey,
		minVersion: cfg.MinServerVersion,
		retry:      policy,
		client:     client,
	}, nil
}

type request struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type envelope struct {
	Success bool            `json:"success"`
	Errors  []remoteMessage `json:"errors"`
	Result  []resultSet     `json:"result"`
}

type remoteMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type resultSet struct {
	Results []map[string]any `json:"results"`
	Success bool             `json:"success"`
	Meta    map[string]any   `json:"meta"`
}

// Execute posts sql and params and returns the rows of every result set in order.
func (e *Executor) Execute(ctx context.Context, sql string, params []any) ([]query.Row, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(request{SQL: sql, Params: params})
	if err != nil {
		return nil, &query.RemoteError{Message: "failed to encode request", Cause: err}
	}

	requestID := uuid.NewString()
	log := debug.With("request_id", requestID)

	var rows []query.Row
	err = e.retry.do(ctx, func(attempt int) error {
		start := time.Now()
		var err error
		rows, err = e.send(ctx, requestID, body)
		log.Debug("http execute", "attempt", attempt, "sql", sql, "duration", time.Since(start), "error", err)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (e *Executor) send(ctx context.Context, requestID string, body []byte) ([]query.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &query.RemoteError{Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-Id", requestID)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &query.RemoteError{Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()

	if err := e.checkServer(resp.Header.Get("X-Server-Version")); err != nil {
		return nil, &query.RemoteError{StatusCode: resp.StatusCode, Message: err.Error(), Cause: err}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &query.RemoteError{StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	return decode(resp.StatusCode, raw)
}

func (e *Executor) checkServer(reported string) error {
	if e.minVersion == "" || reported == "" {
		return nil
	}
	ok, err := version.AtLeast(reported, e.minVersion)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIncompatibleServer, err)
	}
	if !ok {
		return fmt.Errorf("%w: server %s, need %s or newer", ErrIncompatibleServer, reported, e.minVersion)
	}
	return nil
}

func decode(status int, raw []byte) ([]query.Row, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	decodeErr := dec.Decode(&env)

	if status < 200 || status > 299 {
		return nil, &query.RemoteError{StatusCode: status, Message: firstMessage(env.Errors)}
	}
	if decodeErr != nil {
		return nil, &query.RemoteError{StatusCode: status, Message: "invalid response body", Cause: decodeErr}
	}
	if !env.Success {
		return nil, &query.RemoteError{StatusCode: status, Message: firstMessage(env.Errors)}
	}

	rows := []query.Row{}
	for _, set := range env.Result {
		if !set.Success {
			return nil, &query.RemoteError{StatusCode: status, Message: firstMessage(env.Errors)}
		}
		for _, r := range set.Results {
			rows = append(rows, query.Row(r))
		}
	}
	return rows, nil
}

func firstMessage(msgs []remoteMessage) string {
	for _, m := range msgs {
		if m.Message != "" {
			return m.Message
		}
	}
	return ""
}

var _ query.Executor = (*Executor)(nil)
