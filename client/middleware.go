package client

import (
	"context"
	"time"

	"github.com/rowbase/rowbase-go/internal/debug"
	"github.com/rowbase/rowbase-go/query"
)

// Middleware wraps an Executor.
type Middleware func(next query.Executor) query.Executor

// Chain applies mws so the first one is outermost.
func Chain(exec query.Executor, mws ...Middleware) query.Executor {
	for i := len(mws) - 1; i >= 0; i-- {
		exec = mws[i](exec)
	}
	return exec
}

// QueryInfo describes one finished Execute call.
type QueryInfo struct {
	SQL      string
	Params   int
	Rows     int
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Observe calls fn after every Execute.
func Observe(fn func(ctx context.Context, info QueryInfo)) Middleware {
	return func(next query.Executor) query.Executor {
		return query.ExecutorFunc(func(ctx context.Context, sql string, params []any) ([]query.Row, error) {
			info := QueryInfo{SQL: sql, Params: len(params), Started: time.Now()}
			rows, err := next.Execute(ctx, sql, params)
			info.Duration = time.Since(info.Started)
			info.Rows = len(rows)
			info.Err = err
			fn(ctx, info)
			return rows, err
		})
	}
}

// Logging logs every statement through the debug logger.
func Logging() Middleware {
	return Observe(func(_ context.Context, info QueryInfo) {
		if info.Err != nil {
			debug.Error("query failed",
				"sql", info.SQL,
				"params", info.Params,
				"duration", info.Duration,
				"error", info.Err,
			)
			return
		}
		debug.Debug("query completed",
			"sql", info.SQL,
			"params", info.Params,
			"rows", info.Rows,
			"duration", info.Duration,
		)
	})
}

// Timeout bounds every Execute call by d.
func Timeout(d time.Duration) Middleware {
	return func(next query.Executor) query.Executor {
		return query.ExecutorFunc(func(ctx context.Context, sql string, params []any) ([]query.Row, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Execute(ctx, sql, params)
		})
	}
}
