// Package query builds parameterized SQL statements and hands them to an Executor.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Executor runs finished SQL text with positional parameters and returns the result rows.
//
// Implementations report remote or transport failures as errors satisfying
// errors.Is(err, ErrRemoteQueryFailed). Context errors are returned as-is.
type Executor interface {
	Execute(ctx context.Context, sql string, params []any) ([]Row, error)
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, sql string, params []any) ([]Row, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, sql string, params []any) ([]Row, error) {
	return f(ctx, sql, params)
}

// Row maps column names to scalar values.
type Row map[string]any

// Has reports whether the row carries a value (possibly nil) for col.
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// String returns the value of col as a string. Nil and missing values give "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the value of col as an int64.
func (r Row) Int64(col string) (int64, error) {
	v, ok := r[col]
	if !ok {
		return 0, fmt.Errorf("column %q not present", col)
	}
	return toInt64(v)
}

// Bool returns the value of col as a bool. Numbers are true when non-zero.
func (r Row) Bool(col string) (bool, error) {
	switch v := r[col].(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	case string:
		return strconv.ParseBool(v)
	default:
		n, err := toInt64(v)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", v)
	}
}
