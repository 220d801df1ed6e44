// Package storage implements the catalog above the storage core
// (internal/storage/pager): databases, schemas, and tables, plus the
// background maintenance scheduler that sweeps free-space fragmentation.
package storage

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/minipagedb/minipagedb/internal/storage/pager"
)

// Column describes one table column at the catalog level: its name, its
// row-codec type, and whether it is the table's primary key.
type Column struct {
	Name     string
	Type     pager.TypeTag
	VarcharN uint32
	IsPK     bool
}

// Table owns its ordered column list and the C9 table engine backing it.
// Tables are tree-owned by their Schema; there is no implicit collection.
type Table struct {
	ID      uuid.UUID
	Name    string
	columns []Column
	engine  *pager.Table
}

// Columns returns the table's column list in declaration order.
func (t *Table) Columns() []Column { return append([]Column(nil), t.columns...) }

// Engine returns the table's underlying C9 table engine, for the command
// layer to drive insert/select/delete against.
func (t *Table) Engine() *pager.Table { return t.engine }

// AddColumn is additive-only: it fails once the table holds any row,
// matching spec.md §6's create_column contract.
func (t *Table) AddColumn(col Column) error {
	if err := t.engine.CreateColumn(pager.ColumnDef{
		Name: col.Name, Tag: col.Type, VarcharN: col.VarcharN, IsPK: col.IsPK,
	}); err != nil {
		return err
	}
	t.columns = append(t.columns, col)
	return nil
}

// Schema owns a name-keyed map of Tables.
type Schema struct {
	ID     uuid.UUID
	Name   string
	mu     sync.RWMutex
	tables map[string]*Table
}

func newSchema(name string) *Schema {
	return &Schema{ID: uuid.New(), Name: name, tables: make(map[string]*Table)}
}

// CreateTable creates a table named name with the given columns, backed by
// a fresh C9 table engine over core. fanout and strategy configure the
// B-Tree order and placement policy; coalesce configures the free-space
// registry's coalescing policy (spec.md §4.3 point 4).
func (s *Schema) CreateTable(core *pager.Core, name string, columns []Column, fanout int, strategy pager.FitStrategy, coalesce bool) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		return nil, fmt.Errorf("table %q already exists", name)
	}

	defs := make([]pager.ColumnDef, len(columns))
	for i, c := range columns {
		defs[i] = pager.ColumnDef{Name: c.Name, Tag: c.Type, VarcharN: c.VarcharN, IsPK: c.IsPK}
	}
	engine, err := pager.NewTable(core, defs, fanout, strategy, coalesce)
	if err != nil {
		return nil, err
	}
	tbl := &Table{ID: uuid.New(), Name: name, columns: append([]Column(nil), columns...), engine: engine}
	s.tables[name] = tbl
	return tbl, nil
}

// CreateTableWithLocale is CreateTable, but orders a varchar primary key
// by locale-aware collation (locale is a BCP 47 tag, e.g. "de", "sv")
// instead of DefaultComparator's plain byte-wise order. See
// pager.CollateComparator.
func (s *Schema) CreateTableWithLocale(core *pager.Core, name string, columns []Column, fanout int, strategy pager.FitStrategy, coalesce bool, locale string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; exists {
		return nil, fmt.Errorf("table %q already exists", name)
	}

	defs := make([]pager.ColumnDef, len(columns))
	for i, c := range columns {
		defs[i] = pager.ColumnDef{Name: c.Name, Tag: c.Type, VarcharN: c.VarcharN, IsPK: c.IsPK}
	}
	engine, err := pager.NewTableWithComparator(core, defs, fanout, strategy, coalesce, pager.CollateComparator(locale))
	if err != nil {
		return nil, err
	}
	tbl := &Table{ID: uuid.New(), Name: name, columns: append([]Column(nil), columns...), engine: engine}
	s.tables[name] = tbl
	return tbl, nil
}

// Table returns the named table, or false if it doesn't exist.
func (s *Schema) Table(name string) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// TableByID returns the table whose stable catalog ID is id, or false if
// none matches. Unlike Table (keyed by name, which can be dropped and
// recreated under the same name for a different table), this looks the
// table up by the ID assigned when it was created, which no other table
// is given; the ID of a dropped table matches nothing.
func (s *Schema) TableByID(id uuid.UUID) (*Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tables {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// DropTable removes a table by name. Returns false if it didn't exist.
func (s *Schema) DropTable(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[name]; !ok {
		return false
	}
	delete(s.tables, name)
	return true
}

// Tables returns every table name currently owned by the schema.
func (s *Schema) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	return out
}

// Database owns a name-keyed map of Schemas and the process-wide storage
// core (page pool + identity registry) shared by every table beneath it.
type Database struct {
	ID      uuid.UUID
	Name    string
	Core    *pager.Core
	mu      sync.RWMutex
	schemas map[string]*Schema
}

func newDatabase(name string) *Database {
	return &Database{ID: uuid.New(), Name: name, Core: pager.NewCore(), schemas: make(map[string]*Schema)}
}

// CreateSchema creates a schema named name. Fails if one already exists.
func (d *Database) CreateSchema(name string) (*Schema, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.schemas[name]; exists {
		return nil, fmt.Errorf("schema %q already exists", name)
	}
	s := newSchema(name)
	d.schemas[name] = s
	return s, nil
}

// Schema returns the named schema, or false if it doesn't exist.
func (d *Database) Schema(name string) (*Schema, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.schemas[name]
	return s, ok
}

// DropSchema removes a schema by name. Returns false if it didn't exist.
func (d *Database) DropSchema(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.schemas[name]; !ok {
		return false
	}
	delete(d.schemas, name)
	return true
}

// Schemas returns every schema name currently owned by the database.
func (d *Database) Schemas() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.schemas))
	for name := range d.schemas {
		out = append(out, name)
	}
	return out
}

// Catalog is the top-level, multi-tenant-capable owner of every Database
// in a process, mirroring the teacher's tenant-keyed top-level catalog.
type Catalog struct {
	mu        sync.RWMutex
	databases map[string]*Database
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{databases: make(map[string]*Database)}
}

// CreateDatabase creates a database named name. Fails if one already
// exists.
func (c *Catalog) CreateDatabase(name string) (*Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.databases[name]; exists {
		return nil, fmt.Errorf("database %q already exists", name)
	}
	db := newDatabase(name)
	c.databases[name] = db
	return db, nil
}

// Database returns the named database, or false if it doesn't exist.
func (c *Catalog) Database(name string) (*Database, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, ok := c.databases[name]
	return db, ok
}

// DropDatabase removes a database by name. Returns false if it didn't
// exist.
func (c *Catalog) DropDatabase(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.databases[name]; !ok {
		return false
	}
	delete(c.databases, name)
	return true
}

// Databases returns every database name currently in the catalog.
func (c *Catalog) Databases() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.databases))
	for name := range c.databases {
		out = append(out, name)
	}
	return out
}
