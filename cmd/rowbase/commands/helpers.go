package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rowbase/rowbase-go/internal/config"
	"github.com/rowbase/rowbase-go/internal/ui"
	"github.com/rowbase/rowbase-go/query"
)

// parseJoin splits "Table:on expression" at the first colon.
func parseJoin(arg string) (table, on string, err error) {
	table, on, ok := strings.Cut(arg, ":")
	if !ok || strings.TrimSpace(table) == "" || strings.TrimSpace(on) == "" {
		return "", "", fmt.Errorf("join %q must look like Table:on-expression", arg)
	}
	return strings.TrimSpace(table), strings.TrimSpace(on), nil
}

// parseOrder splits "col[:asc|desc]".
func parseOrder(arg string) (col, dir string) {
	col, dir, _ = strings.Cut(arg, ":")
	return col, dir
}

// parseLiteral reads s as JSON when it parses, otherwise as a plain string.
func parseLiteral(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	switch v.(type) {
	case map[string]any, []any:
		return s
	}
	return normalize(v)
}

// parseAssignments turns col=value pairs into a column map.
func parseAssignments(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		col, raw, ok := strings.Cut(pair, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("assignment %q must look like column=value", pair)
		}
		values[col] = parseLiteral(raw)
	}
	return values, nil
}

// decodeRows parses JSON objects into rows with integer-preserving numbers.
func decodeRows(objects []string) ([]query.Row, error) {
	rows := make([]query.Row, 0, len(objects))
	for _, obj := range objects {
		dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
		dec.UseNumber()

		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("row %q is not a JSON object: %w", obj, err)
		}
		row := make(query.Row, len(m))
		for k, v := range m {
			row[k] = normalize(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// normalize turns json.Number into int64 or float64 so drivers bind numbers.
func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func warnIfExpired(p *ui.Printer, apiKey string) {
	exp, ok := config.TokenExpiry(apiKey)
	if ok && time.Now().After(exp) {
		p.Warning("API key expired at %s; run `rowbase login` again", exp.Format(time.RFC3339))
	}
}
