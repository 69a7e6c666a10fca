package query

const (
	deleteSeed = iota
	deleteFrom
	deleteWhere
)

var deleteStages = []string{"DELETE", "FROM", "WHERE"}

// DeleteStatement builds a DELETE.
type DeleteStatement struct {
	statement
}

func newDelete(exec Executor) *DeleteStatement {
	q := &DeleteStatement{}
	q.init(KindDelete, exec, "DELETE", deleteStages)
	q.ready = func() error {
		if q.stage < deleteFrom {
			return malformed("delete has no FROM clause")
		}
		return nil
	}
	return q
}

// From appends FROM "table".
func (q *DeleteStatement) From(table string) *DeleteStatement {
	q.table(deleteFrom, " FROM ", table)
	return q
}

// Where adds c, joined to earlier predicates with AND.
func (q *DeleteStatement) Where(c Condition) *DeleteStatement {
	q.where(deleteWhere, "AND", c)
	return q
}

// OrWhere adds c, joined to earlier predicates with OR.
func (q *DeleteStatement) OrWhere(c Condition) *DeleteStatement {
	q.where(deleteWhere, "OR", c)
	return q
}
