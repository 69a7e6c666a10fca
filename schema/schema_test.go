package schema

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowbase/rowbase-go/query"
)

// scripted answers introspection SQL by prefix.
type scripted struct {
	answers map[string][]query.Row
	fail    map[string]error
	calls   []string
}

func (s *scripted) Execute(_ context.Context, sql string, _ []any) ([]query.Row, error) {
	s.calls = append(s.calls, sql)
	for prefix, err := range s.fail {
		if strings.HasPrefix(sql, prefix) {
			return nil, err
		}
	}
	for prefix, rows := range s.answers {
		if strings.HasPrefix(sql, prefix) {
			return rows, nil
		}
	}
	return []query.Row{}, nil
}

func pixelsCatalog() *scripted {
	return &scripted{answers: map[string][]query.Row{
		"SELECT name FROM sqlite_master": {{"name": "Pixels"}},
		`PRAGMA table_info("Pixels")`: {
			{"cid": json.Number("0"), "name": "id", "type": "INTEGER", "notnull": json.Number("1"), "dflt_value": nil, "pk": json.Number("1")},
			{"cid": json.Number("1"), "name": "x", "type": "INTEGER", "notnull": json.Number("0"), "dflt_value": nil, "pk": json.Number("0")},
			{"cid": json.Number("2"), "name": "y", "type": "INTEGER", "notnull": json.Number("0"), "dflt_value": nil, "pk": json.Number("0")},
			{"cid": json.Number("3"), "name": "color", "type": "TEXT", "notnull": json.Number("0"), "dflt_value": nil, "pk": json.Number("0")},
		},
		`PRAGMA foreign_key_list("Pixels")`: {},
	}}
}

func TestDescribe_Pixels(t *testing.T) {
	desc, err := New(NewSQLiteCatalog(pixelsCatalog())).Describe(context.Background())
	require.NoError(t, err)

	want := &Description{Tables: []Table{{
		Name: "Pixels",
		Columns: []Column{
			{Name: "id", Datatype: Number, Constraint: Primary, IsRequired: true},
			{Name: "x", Datatype: Number, Constraint: None},
			{Name: "y", Datatype: Number, Constraint: None},
			{Name: "color", Datatype: String, Constraint: None},
		},
	}}}
	assert.Equal(t, want, desc)
}

func TestDescribe_JSONShape(t *testing.T) {
	desc, err := New(NewSQLiteCatalog(pixelsCatalog())).Describe(context.Background())
	require.NoError(t, err)

	out, err := json.Marshal(desc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tables":[{"name":"Pixels","columns":[
		{"name":"id","datatype":"number","constraint":"primary","isRequired":true,"foreignKey":null},
		{"name":"x","datatype":"number","constraint":"none","isRequired":false,"foreignKey":null},
		{"name":"y","datatype":"number","constraint":"none","isRequired":false,"foreignKey":null},
		{"name":"color","datatype":"string","constraint":"none","isRequired":false,"foreignKey":null}
	]}]}`, string(out))
}

func TestDescribe_ForeignKeys(t *testing.T) {
	cat := &scripted{answers: map[string][]query.Row{
		"SELECT name FROM sqlite_master": {{"name": "Users"}, {"name": "Posts"}},
		`PRAGMA table_info("Users")`: {
			{"name": "id", "type": "INTEGER", "notnull": int64(0), "pk": int64(1)},
		},
		`PRAGMA table_info("Posts")`: {
			{"name": "id", "type": "INTEGER", "notnull": int64(0), "pk": int64(1)},
			{"name": "author", "type": "INT", "notnull": int64(1), "pk": int64(0)},
			{"name": "body", "type": "VARCHAR(255)", "notnull": int64(0), "pk": int64(0)},
		},
		`PRAGMA foreign_key_list("Posts")`: {
			{"id": int64(0), "seq": int64(0), "table": "Users", "from": "author", "to": "id"},
		},
	}}

	desc, err := New(NewSQLiteCatalog(cat)).Describe(context.Background())
	require.NoError(t, err)
	require.Len(t, desc.Tables, 2)

	assert.Equal(t, "Users", desc.Tables[0].Name)
	assert.Equal(t, "Posts", desc.Tables[1].Name)

	posts := desc.Tables[1].Columns
	assert.Nil(t, posts[0].ForeignKey)
	assert.Equal(t, &ForeignKey{TableName: "Users", ColumnName: "id"}, posts[1].ForeignKey)
	assert.Equal(t, Unique, posts[1].Constraint)
	assert.True(t, posts[1].IsRequired)
	assert.Equal(t, String, posts[2].Datatype)
}

func TestDescribe_NoTables(t *testing.T) {
	cat := &scripted{}
	desc, err := New(NewSQLiteCatalog(cat)).Describe(context.Background())
	require.NoError(t, err)
	assert.Empty(t, desc.Tables)
	assert.Len(t, cat.calls, 1)
}

func TestDescribe_Errors(t *testing.T) {
	remote := &query.RemoteError{StatusCode: 500, Message: "boom"}

	tests := []struct {
		name   string
		prefix string
		msg    string
	}{
		{name: "tables", prefix: "SELECT name FROM sqlite_master", msg: "failed to list tables"},
		{name: "columns", prefix: "PRAGMA table_info", msg: "failed to introspect columns for Pixels"},
		{name: "foreign keys", prefix: "PRAGMA foreign_key_list", msg: "failed to introspect foreign keys for Pixels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := pixelsCatalog()
			cat.fail = map[string]error{tt.prefix: remote}

			desc, err := New(NewSQLiteCatalog(cat)).Describe(context.Background())
			assert.Nil(t, desc)
			assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDescribe_NotCached(t *testing.T) {
	cat := pixelsCatalog()
	n := New(NewSQLiteCatalog(cat))

	_, err := n.Describe(context.Background())
	require.NoError(t, err)
	_, err = n.Describe(context.Background())
	require.NoError(t, err)

	assert.Len(t, cat.calls, 6)
}

func TestMapDatatype(t *testing.T) {
	tests := []struct {
		in   string
		want Datatype
	}{
		{"INTEGER", Number},
		{"INT", Number},
		{"BIGINT", Number},
		{"TINYINT", Number},
		{"POINT", Number},
		{"REAL", Number},
		{"TEXT", String},
		{"VARCHAR(10)", String},
		{"FLOAT", String},
		{"DOUBLE PRECISION", String},
		{"REAL NUMBER", String},
		{"integer", String},
		{"", String},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapDatatype(tt.in), tt.in)
	}
}

func TestMapConstraint(t *testing.T) {
	assert.Equal(t, Primary, MapConstraint(ColumnInfo{PrimaryKey: true}))
	assert.Equal(t, Primary, MapConstraint(ColumnInfo{PrimaryKey: true, NotNull: true}))
	assert.Equal(t, Unique, MapConstraint(ColumnInfo{NotNull: true}))
	assert.Equal(t, None, MapConstraint(ColumnInfo{}))
}

func TestSQLiteCatalog_CompositeKey(t *testing.T) {
	cat := &scripted{answers: map[string][]query.Row{
		`PRAGMA table_info("Pairs")`: {
			{"name": "a", "type": "INTEGER", "notnull": int64(1), "pk": int64(1)},
			{"name": "b", "type": "INTEGER", "notnull": int64(1), "pk": int64(2)},
		},
	}}

	cols, err := NewSQLiteCatalog(cat).Columns(context.Background(), "Pairs")
	require.NoError(t, err)
	assert.True(t, cols[0].PrimaryKey)
	assert.True(t, cols[1].PrimaryKey)
}

func TestSQLiteCatalog_QuotesTableName(t *testing.T) {
	cat := &scripted{}
	_, err := NewSQLiteCatalog(cat).Columns(context.Background(), `we"ird`)
	require.NoError(t, err)
	assert.Equal(t, []string{`PRAGMA table_info("we""ird")`}, cat.calls)
}

func TestSQLiteCatalog_BadFlag(t *testing.T) {
	cat := &scripted{answers: map[string][]query.Row{
		`PRAGMA table_info("T")`: {{"name": "a", "type": "TEXT", "notnull": "maybe", "pk": int64(0)}},
	}}
	_, err := NewSQLiteCatalog(cat).Columns(context.Background(), "T")
	assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)

	cat.answers["SELECT name FROM sqlite_master"] = []query.Row{{"name": "T"}}
	_, err = New(NewSQLiteCatalog(cat)).Describe(context.Background())
	assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)

	var remote *query.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Message, "notnull")
	assert.Error(t, remote.Cause)
}

func TestInformationSchemaCatalog_BadFlag(t *testing.T) {
	cat := &scripted{answers: map[string][]query.Row{
		"\n\t\tSELECT\n\t\t\tcolumn_name": {{"name": "id", "type": "INT", "not_null": true, "pk": "perhaps"}},
	}}
	_, err := NewMySQLCatalog(cat).Columns(context.Background(), "users")
	assert.ErrorIs(t, err, query.ErrRemoteQueryFailed)
}

func TestInformationSchemaCatalogs(t *testing.T) {
	rows := map[string][]query.Row{
		"\n\t\tSELECT table_name": {{"name": "users"}},
		"\n\t\tSELECT\n\t\t\tc.column_name": {
			{"name": "id", "type": "INTEGER", "not_null": true, "pk": true},
			{"name": "email", "type": "TEXT", "not_null": true, "pk": false},
		},
		"\n\t\tSELECT\n\t\t\tcolumn_name AS name": {
			{"name": "id", "type": "INT", "not_null": int64(1), "pk": int64(1)},
			{"name": "email", "type": "VARCHAR", "not_null": int64(1), "pk": int64(0)},
		},
	}

	for _, provider := range []string{"postgres", "mysql"} {
		t.Run(provider, func(t *testing.T) {
			cat, err := CatalogFor(provider, &scripted{answers: rows})
			require.NoError(t, err)

			desc, err := New(cat).Describe(context.Background())
			require.NoError(t, err)
			require.Len(t, desc.Tables, 1)

			cols := desc.Tables[0].Columns
			require.Len(t, cols, 2)
			assert.Equal(t, Primary, cols[0].Constraint)
			assert.Equal(t, Number, cols[0].Datatype)
			assert.Equal(t, Unique, cols[1].Constraint)
			assert.Equal(t, String, cols[1].Datatype)
		})
	}
}

func TestCatalogFor(t *testing.T) {
	exec := &scripted{}

	for _, p := range []string{"", "http", "sqlite", "sqlite3"} {
		c, err := CatalogFor(p, exec)
		require.NoError(t, err)
		assert.IsType(t, &SQLiteCatalog{}, c)
	}

	c, err := CatalogFor("postgresql", exec)
	require.NoError(t, err)
	assert.IsType(t, &PostgresCatalog{}, c)

	c, err = CatalogFor("mysql", exec)
	require.NoError(t, err)
	assert.IsType(t, &MySQLCatalog{}, c)

	_, err = CatalogFor("oracle", exec)
	assert.True(t, errors.Is(err, ErrUnsupportedProvider))
}
