package query

import (
	"strings"
)

// Condition is a single predicate fragment with its bound values.
type Condition struct {
	fragment string
	values   []any
	err      error
}

// SQL returns the predicate fragment.
func (c Condition) SQL() string {
	return c.fragment
}

// Values returns a copy of the bound values, aligned with the placeholders in SQL.
func (c Condition) Values() []any {
	if c.values == nil {
		return nil
	}
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// Err reports whether the condition was built from invalid input.
func (c Condition) Err() error {
	return c.err
}

// Eq builds "col" = ?.
func Eq(col string, value any) Condition {
	return compare(col, "=", value)
}

// Ne builds "col" != ?.
func Ne(col string, value any) Condition {
	return compare(col, "!=", value)
}

// Gt builds "col" > ?.
func Gt(col string, value any) Condition {
	return compare(col, ">", value)
}

// Gte builds "col" >= ?.
func Gte(col string, value any) Condition {
	return compare(col, ">=", value)
}

// Lt builds "col" < ?.
func Lt(col string, value any) Condition {
	return compare(col, "<", value)
}

// Lte builds "col" <= ?.
func Lte(col string, value any) Condition {
	return compare(col, "<=", value)
}

// Like builds "col" LIKE ?.
func Like(col string, pattern string) Condition {
	return compare(col, "LIKE", pattern)
}

// InArray builds "col" IN (?, ?, ...) with one placeholder per value.
// An empty slice matches no rows and renders as 1=0.
func InArray[T any](col string, values []T) Condition {
	return membership(col, "IN", "1=0", values)
}

// NotInArray builds "col" NOT IN (?, ...). An empty slice matches every row.
func NotInArray[T any](col string, values []T) Condition {
	return membership(col, "NOT IN", "1=1", values)
}

// IsNull builds "col" IS NULL.
func IsNull(col string) Condition {
	if col == "" {
		return Condition{err: invalidArgument("empty column name")}
	}
	return Condition{fragment: QuoteIdentifier(col) + " IS NULL"}
}

// IsNotNull builds "col" IS NOT NULL.
func IsNotNull(col string) Condition {
	if col == "" {
		return Condition{err: invalidArgument("empty column name")}
	}
	return Condition{fragment: QuoteIdentifier(col) + " IS NOT NULL"}
}

func compare(col, op string, value any) Condition {
	if col == "" {
		return Condition{err: invalidArgument("empty column name")}
	}
	return Condition{
		fragment: QuoteIdentifier(col) + " " + op + " ?",
		values:   []any{value},
	}
}

func membership[T any](col, op, empty string, values []T) Condition {
	if col == "" {
		return Condition{err: invalidArgument("empty column name")}
	}
	if len(values) == 0 {
		return Condition{fragment: empty}
	}

	bound := make([]any, len(values))
	for i, v := range values {
		bound[i] = v
	}

	return Condition{
		fragment: QuoteIdentifier(col) + " " + op + " (" + placeholders(len(values)) + ")",
		values:   bound,
	}
}

// placeholders returns n comma-separated question marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// QuoteIdentifier wraps name in double quotes, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
