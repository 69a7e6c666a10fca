package query

import (
	"context"
	"regexp"
	"strings"
)

const (
	selectSeed = iota
	selectFrom
	selectJoin
	selectWhere
	selectOrder
	selectLimit
	selectOffset
)

var selectStages = []string{"SELECT", "FROM", "JOIN", "WHERE", "ORDER BY", "LIMIT", "OFFSET"}

// selectFromPattern matches the projection prefix that Count rewrites.
var selectFromPattern = regexp.MustCompile(`(?s)SELECT .+? FROM `)

const countPrefix = "SELECT COUNT(*) as count FROM "

// SelectStatement builds a SELECT.
type SelectStatement struct {
	statement
}

func newSelect(exec Executor, columns []string) *SelectStatement {
	projection := "*"
	if len(columns) > 0 {
		projection = strings.Join(columns, ", ")
	}
	q := &SelectStatement{}
	q.init(KindSelect, exec, "SELECT "+projection, selectStages)
	return q
}

// From appends FROM "table".
func (q *SelectStatement) From(table string) *SelectStatement {
	q.table(selectFrom, " FROM ", table)
	return q
}

// Join appends JOIN "table" ON on. The ON text is written verbatim.
func (q *SelectStatement) Join(table, on string) *SelectStatement {
	return q.join("JOIN", table, on)
}

// LeftJoin appends LEFT JOIN "table" ON on.
func (q *SelectStatement) LeftJoin(table, on string) *SelectStatement {
	return q.join("LEFT JOIN", table, on)
}

func (q *SelectStatement) join(kind, table, on string) *SelectStatement {
	if !q.advance(selectJoin, true) {
		return q
	}
	if table == "" || on == "" {
		q.fail(invalidArgument("%s needs a table and an ON expression", kind))
		return q
	}
	q.write(" " + kind + " " + QuoteIdentifier(table) + " ON " + on)
	return q
}

// Where adds c, joined to earlier predicates with AND.
func (q *SelectStatement) Where(c Condition) *SelectStatement {
	q.where(selectWhere, "AND", c)
	return q
}

// OrWhere adds c, joined to earlier predicates with OR. No grouping
// parentheses are added, so AND binds tighter than OR.
func (q *SelectStatement) OrWhere(c Condition) *SelectStatement {
	q.where(selectWhere, "OR", c)
	return q
}

// OrderBy appends ORDER BY "col" ASC|DESC. An empty direction means ASC.
func (q *SelectStatement) OrderBy(col, direction string) *SelectStatement {
	if !q.advance(selectOrder, false) {
		return q
	}
	if col == "" {
		q.fail(invalidArgument("empty order column"))
		return q
	}

	dir := strings.ToUpper(strings.TrimSpace(direction))
	switch dir {
	case "":
		dir = "ASC"
	case "ASC", "DESC":
	default:
		q.fail(invalidArgument("order direction %q", direction))
		return q
	}

	q.write(" ORDER BY " + QuoteIdentifier(col) + " " + dir)
	return q
}

// Limit appends LIMIT ?.
func (q *SelectStatement) Limit(n int) *SelectStatement {
	return q.bound(selectLimit, " LIMIT ?", n)
}

// Offset appends OFFSET ?.
func (q *SelectStatement) Offset(n int) *SelectStatement {
	return q.bound(selectOffset, " OFFSET ?", n)
}

func (q *SelectStatement) bound(stage int, fragment string, n int) *SelectStatement {
	if !q.advance(stage, false) {
		return q
	}
	if n < 0 {
		q.fail(invalidArgument("%s must not be negative", selectStages[stage]))
		return q
	}
	q.write(fragment, n)
	return q
}

// First executes the statement and returns its first row. found is false
// when the result set is empty; that is not an error.
func (q *SelectStatement) First(ctx context.Context) (row Row, found bool, err error) {
	rows, err := q.Exec(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Count rewrites the projection to COUNT(*), keeping every later clause and
// parameter, executes it and returns the count.
func (q *SelectStatement) Count(ctx context.Context) (int64, error) {
	sql, params, err := q.claim()
	if err != nil {
		return 0, err
	}

	countSQL, err := countStatement(sql)
	if err != nil {
		return 0, err
	}

	rows, err := q.send(ctx, countSQL, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, &StatementError{Kind: q.kind, SQL: countSQL, Cause: &RemoteError{Message: "count returned no rows"}}
	}

	n, err := rows[0].Int64("count")
	if err != nil {
		return 0, &StatementError{Kind: q.kind, SQL: countSQL, Cause: &RemoteError{Message: err.Error()}}
	}
	return n, nil
}

// countStatement replaces the leading SELECT ... FROM with the COUNT prefix.
func countStatement(sql string) (string, error) {
	matches := selectFromPattern.FindAllStringIndex(sql, -1)
	if len(matches) != 1 || matches[0][0] != 0 {
		return "", malformed("count needs exactly one leading SELECT ... FROM, found %d", len(matches))
	}
	return countPrefix + sql[matches[0][1]:], nil
}
