package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/rowbase/rowbase-go/query"
)

// ErrUnsupportedProvider is returned by CatalogFor for unknown providers.
var ErrUnsupportedProvider = errors.New("unsupported database provider")

// CatalogFor returns the catalog that understands provider's introspection
// queries. The remote HTTP service is SQLite-backed.
func CatalogFor(provider string, exec query.Executor) (Catalog, error) {
	switch provider {
	case "", "http", "sqlite", "sqlite3":
		return NewSQLiteCatalog(exec), nil
	case "postgresql", "postgres":
		return NewPostgresCatalog(exec, "public"), nil
	case "mysql":
		return NewMySQLCatalog(exec), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

// SQLiteCatalog reads sqlite_master and the table PRAGMAs.
type SQLiteCatalog struct {
	exec query.Executor
}

// NewSQLiteCatalog creates a SQLite catalog.
func NewSQLiteCatalog(exec query.Executor) *SQLiteCatalog {
	return &SQLiteCatalog{exec: exec}
}

// Tables lists tables, skipping sqlite_ and _cf_ internal tables.
func (c *SQLiteCatalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.exec.Execute(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE '\_cf\_%' ESCAPE '\'`, nil)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.String("name"))
	}
	return names, nil
}

// Columns runs PRAGMA table_info.
func (c *SQLiteCatalog) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := c.exec.Execute(ctx, "PRAGMA table_info("+query.QuoteIdentifier(table)+")", nil)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnInfo, 0, len(rows))
	for _, row := range rows {
		notNull, err := row.Bool("notnull")
		if err != nil {
			return nil, undecodable("notnull", row, err)
		}
		// pk is the 1-based position within the key, 0 for non-key columns.
		pk, err := row.Int64("pk")
		if err != nil {
			return nil, undecodable("pk", row, err)
		}

		columns = append(columns, ColumnInfo{
			Name:       row.String("name"),
			Type:       row.String("type"),
			NotNull:    notNull,
			PrimaryKey: pk > 0,
		})
	}
	return columns, nil
}

// ForeignKeys runs PRAGMA foreign_key_list.
func (c *SQLiteCatalog) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyInfo, error) {
	rows, err := c.exec.Execute(ctx, "PRAGMA foreign_key_list("+query.QuoteIdentifier(table)+")", nil)
	if err != nil {
		return nil, err
	}

	fks := make([]ForeignKeyInfo, 0, len(rows))
	for _, row := range rows {
		fks = append(fks, ForeignKeyInfo{
			From:     row.String("from"),
			Table:    row.String("table"),
			ToColumn: row.String("to"),
		})
	}
	return fks, nil
}

// PostgresCatalog reads information_schema for one schema.
type PostgresCatalog struct {
	exec   query.Executor
	schema string
}

// NewPostgresCatalog creates a PostgreSQL catalog for schemaName.
func NewPostgresCatalog(exec query.Executor, schemaName string) *PostgresCatalog {
	return &PostgresCatalog{exec: exec, schema: schemaName}
}

// Tables lists base tables of the schema.
func (c *PostgresCatalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.exec.Execute(ctx, `
		SELECT table_name AS name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`, []any{c.schema})
	if err != nil {
		return nil, err
	}
	return names(rows), nil
}

// Columns lists columns with upper-cased type names.
func (c *PostgresCatalog) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := c.exec.Execute(ctx, `
		SELECT
			c.column_name AS name,
			UPPER(c.data_type) AS type,
			c.is_nullable = 'NO' AS not_null,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
					AND tc.table_name = kcu.table_name
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = c.table_schema
				  AND tc.table_name = c.table_name
				  AND kcu.column_name = c.column_name
			) AS pk
		FROM information_schema.columns c
		WHERE c.table_schema = ?
		  AND c.table_name = ?
		ORDER BY c.ordinal_position`, []any{c.schema, table})
	if err != nil {
		return nil, err
	}
	return columnInfos(rows)
}

// ForeignKeys lists foreign key column pairs.
func (c *PostgresCatalog) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyInfo, error) {
	rows, err := c.exec.Execute(ctx, `
		SELECT
			kcu.column_name AS from_column,
			ccu.table_name AS to_table,
			ccu.column_name AS to_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = ?
		  AND tc.table_name = ?`, []any{c.schema, table})
	if err != nil {
		return nil, err
	}
	return foreignKeyInfos(rows), nil
}

// MySQLCatalog reads information_schema for the current database.
type MySQLCatalog struct {
	exec query.Executor
}

// NewMySQLCatalog creates a MySQL catalog.
func NewMySQLCatalog(exec query.Executor) *MySQLCatalog {
	return &MySQLCatalog{exec: exec}
}

// Tables lists base tables of DATABASE().
func (c *MySQLCatalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.exec.Execute(ctx, `
		SELECT table_name AS name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`, nil)
	if err != nil {
		return nil, err
	}
	return names(rows), nil
}

// Columns lists columns with upper-cased type names.
func (c *MySQLCatalog) Columns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := c.exec.Execute(ctx, `
		SELECT
			column_name AS name,
			UPPER(data_type) AS type,
			is_nullable = 'NO' AS not_null,
			column_key = 'PRI' AS pk
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		ORDER BY ordinal_position`, []any{table})
	if err != nil {
		return nil, err
	}
	return columnInfos(rows)
}

// ForeignKeys lists foreign key column pairs.
func (c *MySQLCatalog) ForeignKeys(ctx context.Context, table string) ([]ForeignKeyInfo, error) {
	rows, err := c.exec.Execute(ctx, `
		SELECT
			column_name AS from_column,
			referenced_table_name AS to_table,
			referenced_column_name AS to_column
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		  AND referenced_table_name IS NOT NULL
		ORDER BY ordinal_position`, []any{table})
	if err != nil {
		return nil, err
	}
	return foreignKeyInfos(rows), nil
}

func names(rows []query.Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.String("name"))
	}
	return out
}

func columnInfos(rows []query.Row) ([]ColumnInfo, error) {
	columns := make([]ColumnInfo, 0, len(rows))
	for _, row := range rows {
		notNull, err := row.Bool("not_null")
		if err != nil {
			return nil, undecodable("not_null", row, err)
		}
		pk, err := row.Bool("pk")
		if err != nil {
			return nil, undecodable("pk", row, err)
		}
		columns = append(columns, ColumnInfo{
			Name:       row.String("name"),
			Type:       row.String("type"),
			NotNull:    notNull,
			PrimaryKey: pk,
		})
	}
	return columns, nil
}

// undecodable reports a catalog row the executor returned in an unexpected
// shape. It fails like any other executor error.
func undecodable(field string, row query.Row, err error) error {
	return &query.RemoteError{
		Message: fmt.Sprintf("unreadable %s for column %s", field, row.String("name")),
		Cause:   err,
	}
}

func foreignKeyInfos(rows []query.Row) []ForeignKeyInfo {
	fks := make([]ForeignKeyInfo, 0, len(rows))
	for _, row := range rows {
		fks = append(fks, ForeignKeyInfo{
			From:     row.String("from_column"),
			Table:    row.String("to_table"),
			ToColumn: row.String("to_column"),
		})
	}
	return fks
}
