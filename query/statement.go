package query

import (
	"context"
	"strings"
)

// Kind identifies the statement variant.
type Kind int

const (
	KindSelect Kind = iota + 1
	KindInsert
	KindUpdate
	KindDelete
)

// String returns the SQL verb for the kind.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Statement is the capability shared by every statement variant.
type Statement interface {
	// Kind returns the statement variant.
	Kind() Kind

	// SQL returns the accumulated text and a copy of the bound parameters.
	SQL() (string, []any, error)

	// Err returns the first error recorded while building the statement.
	Err() error

	// Exec issues the statement to the Executor. A statement executes at most once.
	Exec(ctx context.Context) ([]Row, error)

	// Defer returns a Future that executes the statement when first awaited.
	Defer(ctx context.Context) *Future
}

// statement accumulates SQL text and positional parameters. Clause methods
// append in call order; the stage counter rejects clauses that would land
// after a clause that must follow them.
type statement struct {
	kind     Kind
	exec     Executor
	text     strings.Builder
	params   []any
	hasWhere bool
	stage    int
	stages   []string
	err      error
	consumed bool

	// ready reports whether the accumulated text is executable.
	ready func() error
}

func (s *statement) init(kind Kind, exec Executor, seed string, stages []string) {
	s.kind = kind
	s.exec = exec
	s.stages = stages
	s.text.WriteString(seed)
}

// Kind returns the statement variant.
func (s *statement) Kind() Kind {
	return s.kind
}

// SQL returns the accumulated text and a copy of the bound parameters.
func (s *statement) SQL() (string, []any, error) {
	params := make([]any, len(s.params))
	copy(params, s.params)
	return s.text.String(), params, s.err
}

// Err returns the first error recorded while building the statement.
func (s *statement) Err() error {
	return s.err
}

// Exec issues the statement to the Executor.
func (s *statement) Exec(ctx context.Context) ([]Row, error) {
	sql, params, err := s.claim()
	if err != nil {
		return nil, err
	}
	return s.send(ctx, sql, params)
}

// Defer claims the statement now and returns a Future that sends it on first use.
func (s *statement) Defer(ctx context.Context) *Future {
	sql, params, err := s.claim()
	if err != nil {
		return newFuture(func() ([]Row, error) { return nil, err })
	}
	return newFuture(func() ([]Row, error) { return s.send(ctx, sql, params) })
}

// claim marks the statement consumed and returns what should be sent.
func (s *statement) claim() (string, []any, error) {
	if s.consumed {
		return "", nil, ErrStatementConsumed
	}
	if s.err != nil {
		return "", nil, s.err
	}
	if s.ready != nil {
		if err := s.ready(); err != nil {
			return "", nil, err
		}
	}
	if s.exec == nil {
		return "", nil, invalidArgument("statement has no executor")
	}
	s.consumed = true
	return s.text.String(), s.params, nil
}

func (s *statement) send(ctx context.Context, sql string, params []any) ([]Row, error) {
	rows, err := s.exec.Execute(ctx, sql, params)
	if err != nil {
		return nil, &StatementError{Kind: s.kind, SQL: sql, Cause: err}
	}
	return rows, nil
}

// open reports whether a clause may still be appended.
func (s *statement) open() bool {
	if s.consumed {
		if s.err == nil {
			s.err = ErrStatementConsumed
		}
		return false
	}
	return s.err == nil
}

// fail records err unless an earlier error is already recorded.
func (s *statement) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// advance moves the statement to stage. Repeatable stages may be entered
// more than once in a row.
func (s *statement) advance(stage int, repeatable bool) bool {
	if !s.open() {
		return false
	}
	if stage < s.stage || (stage == s.stage && !repeatable) {
		s.fail(invalidArgument("%s clause cannot follow %s", s.stages[stage], s.stages[s.stage]))
		return false
	}
	s.stage = stage
	return true
}

// write appends a fragment and the values bound by its placeholders.
func (s *statement) write(fragment string, values ...any) {
	s.text.WriteString(fragment)
	s.params = append(s.params, values...)
}

// where appends c, opening the WHERE clause on first use and joining later
// predicates with joiner. Predicates are never parenthesized.
func (s *statement) where(stage int, joiner string, c Condition) {
	if !s.advance(stage, true) {
		return
	}
	if c.err != nil {
		s.fail(c.err)
		return
	}
	if c.fragment == "" {
		s.fail(invalidArgument("empty condition"))
		return
	}

	if s.hasWhere {
		s.write(" " + joiner + " ")
	} else {
		s.write(" WHERE ")
		s.hasWhere = true
	}
	s.write(c.fragment, c.values...)
}

func (s *statement) table(stage int, prefix, name string) {
	if !s.advance(stage, false) {
		return
	}
	if name == "" {
		s.fail(invalidArgument("empty table name"))
		return
	}
	s.write(prefix + QuoteIdentifier(name))
}
