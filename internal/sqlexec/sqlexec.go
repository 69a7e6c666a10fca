// Package sqlexec runs statements against a local database/sql connection.
package sqlexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/rowbase/rowbase-go/internal/debug"
	"github.com/rowbase/rowbase-go/query"
)

// ErrUnsupportedProvider is returned by Open for providers without a driver.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// Executor implements query.Executor over a *sql.DB.
type Executor struct {
	db       *sql.DB
	provider string
}

// Open connects to dsn using the driver registered for provider.
func Open(ctx context.Context, provider, dsn string) (*Executor, error) {
	driverName := DriverName(provider)
	if driverName == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	if driverName == "mysql" {
		var err error
		if dsn, err = ansiQuotesDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driverName == "sqlite3" {
		// A single connection keeps :memory: databases alive across statements.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Executor{db: db, provider: driverName}, nil
}

// ansiQuotesDSN adds ANSI_QUOTES to the session sql_mode so MySQL reads
// double-quoted identifiers the way the builder writes them.
func ansiQuotesDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}

	mode := cfg.Params["sql_mode"]
	switch {
	case mode == "":
		cfg.Params["sql_mode"] = "CONCAT(@@sql_mode, ',ANSI_QUOTES')"
	case hasANSIQuotes(mode):
	case strings.HasPrefix(mode, "'") && strings.HasSuffix(mode, "'") && len(mode) > 2:
		cfg.Params["sql_mode"] = strings.TrimSuffix(mode, "'") + ",ANSI_QUOTES'"
	default:
		cfg.Params["sql_mode"] = "CONCAT(" + mode + ", ',ANSI_QUOTES')"
	}
	return cfg.FormatDSN(), nil
}

func hasANSIQuotes(mode string) bool {
	for _, m := range strings.Split(strings.ToUpper(strings.Trim(mode, `'"`)), ",") {
		switch strings.TrimSpace(m) {
		case "ANSI", "ANSI_QUOTES":
			return true
		}
	}
	return false
}

// New wraps an existing connection. provider selects placeholder rebinding.
func New(db *sql.DB, provider string) *Executor {
	return &Executor{db: db, provider: DriverName(provider)}
}

// DriverName maps a provider name to its database/sql driver name.
func DriverName(provider string) string {
	switch provider {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

// DB returns the underlying connection.
func (e *Executor) DB() *sql.DB {
	return e.db
}

// Close closes the underlying connection.
func (e *Executor) Close() error {
	return e.db.Close()
}

// Execute runs sql and scans every result row into a query.Row.
// Driver failures are reported as *query.RemoteError.
func (e *Executor) Execute(ctx context.Context, sqlText string, params []any) ([]query.Row, error) {
	if e.provider == "postgres" {
		sqlText = Rebind(sqlText)
	}
	debug.Debug("sql execute", "provider", e.provider, "sql", sqlText, "params", len(params))

	rows, err := e.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, wrap(ctx, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, wrap(ctx, err)
	}

	result := []query.Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrap(ctx, fmt.Errorf("failed to scan row: %w", err))
		}

		row := make(query.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(ctx, err)
	}
	return result, nil
}

func wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &query.RemoteError{Message: err.Error(), Cause: err}
}

// Rebind rewrites ? placeholders to $1, $2, ... leaving quoted text untouched.
func Rebind(sqlText string) string {
	var b strings.Builder
	b.Grow(len(sqlText) + 8)

	n := 0
	var quote rune
	for _, r := range sqlText {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			b.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			b.WriteRune(r)
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ query.Executor = (*Executor)(nil)
