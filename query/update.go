package query

import (
	"sort"
)

const (
	updateSeed = iota
	updateSet
	updateWhere
)

var updateStages = []string{"UPDATE", "SET", "WHERE"}

// UpdateStatement builds an UPDATE.
type UpdateStatement struct {
	statement
	assignments int
}

func newUpdate(exec Executor, table string) *UpdateStatement {
	q := &UpdateStatement{}
	q.init(KindUpdate, exec, "UPDATE "+QuoteIdentifier(table), updateStages)
	if table == "" {
		q.fail(invalidArgument("empty table name"))
	}
	q.ready = func() error {
		if q.assignments == 0 {
			return malformed("update has no assignments")
		}
		return nil
	}
	return q
}

// Set appends "col"=? for every key of values, in sorted key order.
func (q *UpdateStatement) Set(values map[string]any) *UpdateStatement {
	if len(values) == 0 {
		if q.open() {
			q.fail(invalidArgument("set called with no values"))
		}
		return q
	}

	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		q.SetColumn(col, values[col])
	}
	return q
}

// SetColumn appends a single "col"=? assignment. The first assignment opens SET.
func (q *UpdateStatement) SetColumn(col string, value any) *UpdateStatement {
	if !q.advance(updateSet, true) {
		return q
	}
	if col == "" {
		q.fail(invalidArgument("empty column name"))
		return q
	}

	if q.assignments == 0 {
		q.write(" SET ")
	} else {
		q.write(", ")
	}
	q.write(QuoteIdentifier(col)+"=?", value)
	q.assignments++
	return q
}

// Where adds c, joined to earlier predicates with AND.
func (q *UpdateStatement) Where(c Condition) *UpdateStatement {
	q.where(updateWhere, "AND", c)
	return q
}

// OrWhere adds c, joined to earlier predicates with OR.
func (q *UpdateStatement) OrWhere(c Condition) *UpdateStatement {
	q.where(updateWhere, "OR", c)
	return q
}
