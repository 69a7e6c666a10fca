package query

// Builder creates statements bound to an Executor. It holds no other state
// and may be shared; the statements it returns may not.
type Builder struct {
	exec Executor
}

// New creates a Builder that sends statements to exec.
func New(exec Executor) *Builder {
	return &Builder{exec: exec}
}

// Select starts SELECT cols. Column expressions are written verbatim; no
// columns selects *.
func (b *Builder) Select(cols ...string) *SelectStatement {
	return newSelect(b.exec, cols)
}

// Insert starts INSERT INTO "table".
func (b *Builder) Insert(table string) *InsertStatement {
	return newInsert(b.exec, table)
}

// Update starts UPDATE "table".
func (b *Builder) Update(table string) *UpdateStatement {
	return newUpdate(b.exec, table)
}

// Delete starts DELETE. Call From to name the table.
func (b *Builder) Delete() *DeleteStatement {
	return newDelete(b.exec)
}

// Executor returns the Executor statements are sent to.
func (b *Builder) Executor() Executor {
	return b.exec
}

var (
	_ Statement = (*SelectStatement)(nil)
	_ Statement = (*InsertStatement)(nil)
	_ Statement = (*UpdateStatement)(nil)
	_ Statement = (*DeleteStatement)(nil)
)
