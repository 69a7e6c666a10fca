// Package filter parses command-line predicates such as `x >= 3` or
// `color IN ('red', 'blue')` into query conditions.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/rowbase/rowbase-go/query"
)

// ErrInvalidFilter is returned for predicates that do not parse.
var ErrInvalidFilter = errors.New("invalid filter")

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(IS|NOT|NULL|IN|LIKE|TRUE|FALSE)\b`},
	{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Operator", Pattern: `!=|<>|>=|<=|=|>|<`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Predicate is the parse tree of one filter.
type Predicate struct {
	Pos    lexer.Position
	Column *Column     `@@`
	Null   *NullTest   `( @@`
	In     *InList     `| @@`
	Cmp    *Comparison `| @@ )`
}

// Column is a bare or double-quoted column name.
type Column struct {
	Bare   string `  @Ident`
	Quoted string `| @QuotedIdent`
}

// NullTest is IS [NOT] NULL.
type NullTest struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

// InList is [NOT] IN (v, ...).
type InList struct {
	Not    bool     `@"NOT"? "IN" "("`
	Values []*Value `( @@ ( "," @@ )* )? ")"`
}

// Comparison is an operator followed by a literal.
type Comparison struct {
	Op    string `( @Operator | @"LIKE" )`
	Value *Value `@@`
}

// Value is a literal.
type Value struct {
	String *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @( "TRUE" | "FALSE" )`
}

var parser = participle.MustBuild[Predicate](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(2),
)

// Parse turns expr into a condition.
func Parse(expr string) (query.Condition, error) {
	pred, err := parser.ParseString("", expr)
	if err != nil {
		return query.Condition{}, fmt.Errorf("%w %q: %w", ErrInvalidFilter, expr, err)
	}
	return pred.Condition()
}

// ParseAll parses every expression, stopping at the first failure.
func ParseAll(exprs []string) ([]query.Condition, error) {
	conds := make([]query.Condition, 0, len(exprs))
	for _, expr := range exprs {
		c, err := Parse(expr)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// Name returns the unquoted column name.
func (c *Column) Name() string {
	if c.Quoted != "" {
		return strings.ReplaceAll(c.Quoted[1:len(c.Quoted)-1], `""`, `"`)
	}
	return c.Bare
}

// Condition builds the query condition for the predicate.
func (p *Predicate) Condition() (query.Condition, error) {
	col := p.Column.Name()

	switch {
	case p.Null != nil:
		if p.Null.Not {
			return query.IsNotNull(col), nil
		}
		return query.IsNull(col), nil

	case p.In != nil:
		values := make([]any, 0, len(p.In.Values))
		for _, v := range p.In.Values {
			values = append(values, v.Go())
		}
		if p.In.Not {
			return query.NotInArray(col, values), nil
		}
		return query.InArray(col, values), nil

	case p.Cmp != nil:
		v := p.Cmp.Value.Go()
		switch strings.ToUpper(p.Cmp.Op) {
		case "=":
			return query.Eq(col, v), nil
		case "!=", "<>":
			return query.Ne(col, v), nil
		case ">":
			return query.Gt(col, v), nil
		case ">=":
			return query.Gte(col, v), nil
		case "<":
			return query.Lt(col, v), nil
		case "<=":
			return query.Lte(col, v), nil
		case "LIKE":
			return query.Like(col, fmt.Sprint(v)), nil
		}
		return query.Condition{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, p.Cmp.Op)
	}

	return query.Condition{}, fmt.Errorf("%w: empty predicate", ErrInvalidFilter)
}

// Go converts the literal to int64, float64, bool or string.
func (v *Value) Go() any {
	switch {
	case v.String != nil:
		s := *v.String
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	case v.Number != nil:
		if i, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return i
		}
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.Bool != nil:
		return strings.EqualFold(*v.Bool, "true")
	}
	return nil
}
