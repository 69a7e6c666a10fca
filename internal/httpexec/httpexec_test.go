package httpexec

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowbase/rowbase-go/internal/version"
	"github.com/rowbase/rowbase-go/query"
)

func newExecutor(t *testing.T, url string, mutate ...func(*Config)) *Executor {
	t.Helper()
	cfg := Config{BaseURL: url, APIKey: "secret", Timeout: 2 * time.Second}
	for _, m := range mutate {
		m(&cfg)
	}
	exec, err := New(cfg)
	require.NoError(t, err)
	return exec
}

func fastRetry(n int) func(*Config) {
	return func(c *Config) {
		c.Retry = RetryPolicy{MaxAttempts: n, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "empty", cfg: Config{}},
		{name: "relative", cfg: Config{BaseURL: "/api"}},
		{name: "bad min version", cfg: Config{BaseURL: "http://x", MinServerVersion: "banana"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestExecute_Request(t *testing.T) {
	var got struct {
		method, path, auth, ctype, ua, reqID string
		body                                 map[string]any
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path = r.Method, r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.ctype = r.Header.Get("Content-Type")
		got.ua = r.Header.Get("User-Agent")
		got.reqID = r.Header.Get("X-Request-Id")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.body)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"errors":[],"result":[{"success":true,"meta":{"duration":0.1},"results":[{"x":3,"y":4,"color":"red"}]}]}`)
	}))
	defer srv.Close()

	exec := newExecutor(t, srv.URL+"/")
	rows, err := exec.Execute(context.Background(), `SELECT * FROM "Pixels" WHERE "x" = ?`, []any{3})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/query", got.path)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.Equal(t, "application/json", got.ctype)
	assert.Equal(t, version.UserAgent(), got.ua)
	_, err = uuid.Parse(got.reqID)
	assert.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "Pixels" WHERE "x" = ?`, got.body["sql"])
	assert.Equal(t, []any{float64(3)}, got.body["params"])

	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("3"), rows[0]["x"])
	assert.Equal(t, "red", rows[0].String("color"))
}

func TestExecute_NilParamsSendEmptyArray(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{"success":true,"result":[{"success":true,"results":[]}]}`)
	}))
	defer srv.Close()

	exec := newExecutor(t, srv.URL, func(c *Config) { c.APIKey = "" })
	rows, err := exec.Execute(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Equal(t, []any{}, body["params"])
}

func TestExecute_MultipleResultSets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":true,"result":[{"success":true,"results":[{"n":1}]},{"success":true,"results":[{"n":2},{"n":3}]}]}`)
	}))
	defer srv.Close()

	rows, err := newExecutor(t, srv.URL).Execute(context.Background(), "SELECT 1; SELECT 2", nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	n, err := rows[2].Int64("n")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestExecute_RemoteFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "success false", status: 200, body: `{"success":false,"errors":[{"code":7500,"message":"no such table: Nope"}]}`, message: "no such table: Nope"},
		{name: "success false no message", status: 200, body: `{"success":false,"errors":[]}`},
		{name: "failed result entry", status: 200, body: `{"success":true,"errors":[],"result":[{"success":false,"results":[]}]}`},
		{name: "unauthorized", status: 401, body: `{"success":false,"errors":[{"code":10000,"message":"Authentication error"}]}`, message: "Authentication error"},
		{name: "server error plain text", status: 500, body: `oops`},
		{name: "garbage body", status: 200, body: `not json`, message: "invalid response body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := newExecutor(t, srv.URL).Execute(context.Background(), "SELECT 1", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)

			var remote *query.RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, tt.status, remote.StatusCode)
			assert.Equal(t, tt.message, remote.Message)
		})
	}
}

func TestExecute_ServerVersionGate(t *testing.T) {
	handler := func(v string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Server-Version", v)
			io.WriteString(w, `{"success":true,"result":[{"success":true,"results":[]}]}`)
		}
	}

	old := httptest.NewServer(handler("1.1.0"))
	defer old.Close()
	current := httptest.NewServer(handler("1.4.2"))
	defer current.Close()

	withMin := func(c *Config) { c.MinServerVersion = "1.2.0" }

	_, err := newExecutor(t, old.URL, withMin).Execute(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, ErrIncompatibleServer)

	_, err = newExecutor(t, current.URL, withMin).Execute(context.Background(), "SELECT 1", nil)
	assert.NoError(t, err)

	_, err = newExecutor(t, old.URL).Execute(context.Background(), "SELECT 1", nil)
	assert.NoError(t, err)
}

func TestExecute_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newExecutor(t, srv.URL).Execute(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)
	assert.NotErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecute_RetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get("X-Request-Id"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"success":true,"result":[{"success":true,"results":[{"ok":true}]}]}`)
	}))
	defer srv.Close()

	rows, err := newExecutor(t, srv.URL, fastRetry(3)).Execute(context.Background(), "SELECT 1", nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2])
}

func TestExecute_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	_, err := newExecutor(t, srv.URL, fastRetry(2)).Execute(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecute_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"success":false,"errors":[{"code":1,"message":"syntax error"}]}`)
	}))
	defer srv.Close()

	_, err := newExecutor(t, srv.URL, fastRetry(5)).Execute(context.Background(), "SELEC 1", nil)
	assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)
	assert.Equal(t, int32(1), calls.Load())
}

func TestExecute_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newExecutor(t, url).Execute(context.Background(), "SELECT 1", nil)
	var remote *query.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Zero(t, remote.StatusCode)
	assert.NotNil(t, remote.Cause)
}

func TestExecute_Canceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newExecutor(t, srv.URL).Execute(ctx, "SELECT 1", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_ThroughBuilder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, `SELECT COUNT(*) as count FROM "Pixels"`, req.SQL)
		io.WriteString(w, `{"success":true,"result":[{"success":true,"results":[{"count":42}]}]}`)
	}))
	defer srv.Close()

	n, err := query.New(newExecutor(t, srv.URL)).Select().From("Pixels").Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
