// Package schema turns catalog introspection rows into a portable schema description.
package schema

import (
	"context"
	"fmt"
	"strings"
)

// Datatype is the portable column type.
type Datatype string

const (
	Number Datatype = "number"
	String Datatype = "string"
)

// Constraint is the portable column constraint.
type Constraint string

const (
	Primary Constraint = "primary"
	Unique  Constraint = "unique"
	None    Constraint = "none"
)

// Description is the normalized schema of a database.
type Description struct {
	Tables []Table `json:"tables"`
}

// Table describes one user table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column describes one column, in declared order.
type Column struct {
	Name       string      `json:"name"`
	Datatype   Datatype    `json:"datatype"`
	Constraint Constraint  `json:"constraint"`
	IsRequired bool        `json:"isRequired"`
	ForeignKey *ForeignKey `json:"foreignKey"`
}

// ForeignKey names the column a foreign key points at.
type ForeignKey struct {
	TableName  string `json:"tableName"`
	ColumnName string `json:"columnName"`
}

// ColumnInfo is a raw column row reported by a Catalog.
type ColumnInfo struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// ForeignKeyInfo is a raw foreign key row reported by a Catalog.
type ForeignKeyInfo struct {
	From     string
	Table    string
	ToColumn string
}

// Catalog provides the three introspection operations a Normalizer needs.
type Catalog interface {
	// Tables lists user tables, excluding engine-internal ones.
	Tables(ctx context.Context) ([]string, error)

	// Columns lists a table's columns in declared order.
	Columns(ctx context.Context, table string) ([]ColumnInfo, error)

	// ForeignKeys lists a table's foreign key column pairs.
	ForeignKeys(ctx context.Context, table string) ([]ForeignKeyInfo, error)
}

// Normalizer builds schema descriptions from a Catalog.
type Normalizer struct {
	catalog Catalog
}

// New creates a Normalizer reading from catalog.
func New(catalog Catalog) *Normalizer {
	return &Normalizer{catalog: catalog}
}

// Describe introspects every user table. Nothing is cached between calls.
func (n *Normalizer) Describe(ctx context.Context) (*Description, error) {
	names, err := n.catalog.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	desc := &Description{Tables: make([]Table, 0, len(names))}
	for _, name := range names {
		table, err := n.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		desc.Tables = append(desc.Tables, table)
	}

	return desc, nil
}

func (n *Normalizer) describeTable(ctx context.Context, name string) (Table, error) {
	columns, err := n.catalog.Columns(ctx, name)
	if err != nil {
		return Table{}, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
	}

	fks, err := n.catalog.ForeignKeys(ctx, name)
	if err != nil {
		return Table{}, fmt.Errorf("failed to introspect foreign keys for %s: %w", name, err)
	}

	table := Table{Name: name, Columns: make([]Column, 0, len(columns))}
	for _, col := range columns {
		table.Columns = append(table.Columns, Column{
			Name:       col.Name,
			Datatype:   MapDatatype(col.Type),
			Constraint: MapConstraint(col),
			IsRequired: col.NotNull,
			ForeignKey: findForeignKey(fks, col.Name),
		})
	}

	return table, nil
}

// MapDatatype maps an engine type name to a portable type. Names containing
// INT, and exactly REAL, are numbers; everything else is a string.
func MapDatatype(engineType string) Datatype {
	if strings.Contains(engineType, "INT") || engineType == "REAL" {
		return Number
	}
	return String
}

// MapConstraint reports primary for key columns regardless of nullability,
// unique for other NOT NULL columns, and none otherwise.
func MapConstraint(col ColumnInfo) Constraint {
	switch {
	case col.PrimaryKey:
		return Primary
	case col.NotNull:
		return Unique
	default:
		return None
	}
}

func findForeignKey(fks []ForeignKeyInfo, column string) *ForeignKey {
	for _, fk := range fks {
		if fk.From == column {
			return &ForeignKey{TableName: fk.Table, ColumnName: fk.ToColumn}
		}
	}
	return nil
}
