// Package ui renders CLI output: status lines, result tables and schema descriptions.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/rowbase/rowbase-go/query"
	"github.com/rowbase/rowbase-go/schema"
)

var (
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	keyColor = color.New(color.FgCyan, color.Bold)
)

// Output formats accepted by --output.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Printer writes to a pair of streams.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// Stdio returns a Printer on os.Stdout and os.Stderr.
func Stdio() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.Err, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Err, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Out, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// KeyValue prints an aligned "key: value" line.
func (p *Printer) KeyValue(key string, value any) {
	keyColor.Fprintf(p.Out, "%-20s", key+":")
	fmt.Fprintf(p.Out, " %v\n", value)
}

// Header prints a boxed title.
func (p *Printer) Header(title, subtitle string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			TitleStyle.Render(title),
			SecondaryStyle.Render(subtitle),
		))
	fmt.Fprintln(p.Out, box)
}

// Rows prints rows in format. columns fixes the column order; when empty
// the sorted union of row keys is used.
func (p *Printer) Rows(format string, columns []string, rows []query.Row) error {
	switch format {
	case FormatJSON:
		return writeJSON(p.Out, rows)
	case FormatTable, "":
		if len(rows) == 0 {
			fmt.Fprintln(p.Out, SecondaryStyle.Render("(no rows)"))
			return nil
		}
		if len(columns) == 0 || (len(columns) == 1 && columns[0] == "*") {
			columns = ColumnsOf(rows)
		}
		out, err := RowsTable(columns, rows)
		if err != nil {
			return err
		}
		fmt.Fprint(p.Out, out)
		fmt.Fprintln(p.Out, SecondaryStyle.Render(fmt.Sprintf("(%d rows)", len(rows))))
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Schema prints desc in format.
func (p *Printer) Schema(format string, desc *schema.Description) error {
	switch format {
	case FormatJSON:
		return writeJSON(p.Out, desc)
	case FormatMarkdown:
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return err
		}
		out, err := r.Render(SchemaMarkdown(desc))
		if err != nil {
			return err
		}
		fmt.Fprint(p.Out, out)
		return nil
	case FormatTable, "":
		for _, table := range desc.Tables {
			fmt.Fprintln(p.Out, TitleStyle.Render(table.Name))
			out, err := SchemaTable(table)
			if err != nil {
				return err
			}
			fmt.Fprintln(p.Out, out)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// ColumnsOf returns the sorted union of keys across rows.
func ColumnsOf(rows []query.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// RowsTable renders rows as a pterm table.
func RowsTable(columns []string, rows []query.Row) (string, error) {
	data := pterm.TableData{columns}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			if row[col] == nil {
				line[i] = "NULL"
			} else {
				line[i] = row.String(col)
			}
		}
		data = append(data, line)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// SchemaTable renders one table's columns.
func SchemaTable(table schema.Table) (string, error) {
	data := pterm.TableData{{"column", "datatype", "constraint", "required", "references"}}
	for _, col := range table.Columns {
		data = append(data, []string{
			col.Name,
			string(col.Datatype),
			string(col.Constraint),
			fmt.Sprint(col.IsRequired),
			reference(col.ForeignKey),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// SchemaMarkdown renders desc as markdown, one section per table.
func SchemaMarkdown(desc *schema.Description) string {
	var b strings.Builder
	b.WriteString("# Schema\n")
	if len(desc.Tables) == 0 {
		b.WriteString("\n_No tables._\n")
	}
	for _, table := range desc.Tables {
		fmt.Fprintf(&b, "\n## %s\n\n", table.Name)
		b.WriteString("| column | datatype | constraint | required | references |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, col := range table.Columns {
			ref := reference(col.ForeignKey)
			if ref == "" {
				ref = "-"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %t | %s |\n", col.Name, col.Datatype, col.Constraint, col.IsRequired, ref)
		}
	}
	return b.String()
}

func reference(fk *schema.ForeignKey) string {
	if fk == nil {
		return ""
	}
	return fk.TableName + "." + fk.ColumnName
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
