// Package client is the entry point for talking to a rowbase database.
//
// A Client embeds a query.Builder, so statements are built directly on it:
//
//	db, err := client.New(client.Config{BaseURL: url, APIKey: key})
//	rows, err := db.Select("x", "y").From("Pixels").Where(query.Eq("color", "red")).Exec(ctx)
package client

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rowbase/rowbase-go/internal/config"
	"github.com/rowbase/rowbase-go/internal/httpexec"
	"github.com/rowbase/rowbase-go/internal/sqlexec"
	"github.com/rowbase/rowbase-go/query"
	"github.com/rowbase/rowbase-go/schema"
)

// Config configures a remote client.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
	// MaxAttempts enables retries of transport and gateway failures when > 1.
	MaxAttempts int
	// MinServerVersion rejects responses from older servers.
	MinServerVersion string
	HTTPClient       *http.Client
}

// Client runs statements through an Executor.
type Client struct {
	*query.Builder

	provider string
	closer   io.Closer
}

// New creates a client for the remote HTTP endpoint.
func New(cfg Config, mws ...Middleware) (*Client, error) {
	retry := httpexec.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}

	exec, err := httpexec.New(httpexec.Config{
		BaseURL:          cfg.BaseURL,
		APIKey:           cfg.APIKey,
		Timeout:          cfg.Timeout,
		MinServerVersion: cfg.MinServerVersion,
		Retry:            retry,
		HTTPClient:       cfg.HTTPClient,
	})
	if err != nil {
		return nil, err
	}

	return newClient("http", exec, nil, mws), nil
}

// Open creates a client on a local database. provider is sqlite, postgres or mysql.
func Open(ctx context.Context, provider, dsn string, mws ...Middleware) (*Client, error) {
	exec, err := sqlexec.Open(ctx, provider, dsn)
	if err != nil {
		return nil, err
	}
	return newClient(provider, exec, exec, mws), nil
}

// NewWithExecutor creates a client on any Executor. provider selects the
// schema catalog; an empty provider means the SQLite dialect.
func NewWithExecutor(provider string, exec query.Executor, mws ...Middleware) *Client {
	return newClient(provider, exec, nil, mws)
}

// FromConfig creates a remote or local client from loaded settings.
func FromConfig(ctx context.Context, cfg *config.Config, mws ...Middleware) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.IsLocal() {
		return Open(ctx, cfg.Provider, cfg.DSN, mws...)
	}
	return New(Config{
		BaseURL:          cfg.BaseURL,
		APIKey:           cfg.APIKey,
		Timeout:          cfg.Timeout,
		MaxAttempts:      cfg.MaxAttempts,
		MinServerVersion: cfg.MinServerVersion,
	}, mws...)
}

func newClient(provider string, exec query.Executor, closer io.Closer, mws []Middleware) *Client {
	return &Client{
		Builder:  query.New(Chain(exec, mws...)),
		provider: provider,
		closer:   closer,
	}
}

// Provider returns the provider the client was created for.
func (c *Client) Provider() string {
	return c.provider
}

// Raw runs sql as-is.
func (c *Client) Raw(ctx context.Context, sql string, params ...any) ([]query.Row, error) {
	if params == nil {
		params = []any{}
	}
	return c.Executor().Execute(ctx, sql, params)
}

// Schema introspects every user table.
func (c *Client) Schema(ctx context.Context) (*schema.Description, error) {
	catalog, err := schema.CatalogFor(c.provider, c.Executor())
	if err != nil {
		return nil, err
	}
	return schema.New(catalog).Describe(ctx)
}

// Close releases local connections. It is a no-op for remote clients.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}
