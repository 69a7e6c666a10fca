package query

import (
	"sort"
	"strings"
)

const (
	insertSeed = iota
	insertValues
)

var insertStages = []string{"INSERT", "VALUES"}

// InsertStatement builds an INSERT.
type InsertStatement struct {
	statement
}

func newInsert(exec Executor, table string) *InsertStatement {
	q := &InsertStatement{}
	q.init(KindInsert, exec, "INSERT INTO "+QuoteIdentifier(table), insertStages)
	if table == "" {
		q.fail(invalidArgument("empty table name"))
	}
	q.ready = func() error {
		if q.stage < insertValues {
			return malformed("insert has no values")
		}
		return nil
	}
	return q
}

// Values appends the column list and one placeholder group per row.
//
// Columns are taken from the first row's keys in sorted order. Every other
// row must carry exactly the same keys; parameters are bound row-major.
func (q *InsertStatement) Values(rows ...Row) *InsertStatement {
	if !q.advance(insertValues, false) {
		return q
	}
	if len(rows) == 0 {
		q.fail(malformed("values called with no rows"))
		return q
	}

	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		q.fail(malformed("first row has no columns"))
		return q
	}
	sort.Strings(columns)

	params := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			q.fail(invalidArgument("row %d has %d columns, first row has %d", i, len(row), len(columns)))
			return q
		}
		for _, col := range columns {
			v, ok := row[col]
			if !ok {
				q.fail(invalidArgument("row %d is missing column %q", i, col))
				return q
			}
			params = append(params, v)
		}
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdentifier(col)
	}
	group := "(" + placeholders(len(columns)) + ")"
	groups := make([]string, len(rows))
	for i := range groups {
		groups[i] = group
	}

	q.write(" ("+strings.Join(quoted, ", ")+") VALUES "+strings.Join(groups, ", "), params...)
	return q
}
