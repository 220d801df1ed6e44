package pager

import "sync"

// ───────────────────────────────────────────────────────────────────────────
// Table engine (C9)
// ───────────────────────────────────────────────────────────────────────────
//
// Core is the process-wide shared state of spec.md §5: the page pool and
// identity registry, guarded by one coarse mutex. Every Table created over
// the same Core shares it (the catalog keeps one Core per database); the
// free-space registry, comparator, and B-Tree are table-owned. Table
// methods hold Core's mutex around every access to the pool, the identity
// registry, and the table's free-space registry; B-Tree operations run
// without a lock.

// Core holds the page pool and identity registry shared by every table in
// a process, and the single mutex that guards both.
type Core struct {
	mu       sync.Mutex
	pool     *Pool
	identity *IdentityRegistry
}

// NewCore creates a fresh shared core with one page and an empty identity
// registry.
func NewCore() *Core {
	return &Core{pool: NewPool(), identity: NewIdentityRegistry()}
}

// ColumnDef describes one table column: its name, its row-codec type tag,
// and whether it is the table's primary key.
type ColumnDef struct {
	Name     string
	Tag      TypeTag
	VarcharN uint32
	IsPK     bool
}

// Table is the table engine (C9): a column list, a PK index, a placement
// advisor, a table-owned free-space registry, and a shared handle to Core.
type Table struct {
	core       *Core
	columns    []ColumnDef
	pkIndex    int
	descriptor Descriptor
	advisor    *Advisor
	registry   *Registry
	index      *BTree
	rowCount   int
}

// NewTable creates an empty table over columns, using fanout as the
// B-Tree's NODE_SIZE and strategy as the placement advisor's fit policy.
// Exactly one column must have IsPK set. coalesce selects the free-space
// registry's coalescing policy (see Registry.Insert).
func NewTable(core *Core, columns []ColumnDef, fanout int, strategy FitStrategy, coalesce bool) (*Table, error) {
	return NewTableWithComparator(core, columns, fanout, strategy, coalesce, DefaultComparator)
}

// NewTableWithComparator is NewTable with an explicit PK comparator,
// letting callers plug a locale-aware collation (see DESIGN.md) for
// varchar primary keys instead of the default byte-wise order.
func NewTableWithComparator(core *Core, columns []ColumnDef, fanout int, strategy FitStrategy, coalesce bool, cmp Comparator) (*Table, error) {
	pkIndex := -1
	descriptor := make(Descriptor, len(columns))
	for i, col := range columns {
		if col.IsPK {
			if pkIndex != -1 {
				return nil, &TableError{Op: "create", Err: ErrTypeMismatch}
			}
			pkIndex = i
		}
		descriptor[i] = Column{Name: col.Name, Tag: col.Tag, VarcharN: col.VarcharN}
	}
	if pkIndex == -1 {
		return nil, &TableError{Op: "create", Err: ErrTypeMismatch}
	}
	if err := descriptor.Validate(); err != nil {
		return nil, &TableError{Op: "create", Err: err}
	}

	return &Table{
		core:       core,
		columns:    append([]ColumnDef(nil), columns...),
		pkIndex:    pkIndex,
		descriptor: descriptor,
		advisor:    NewAdvisor(strategy),
		registry:   NewRegistry(coalesce),
		index:      NewBTree(fanout, cmp),
	}, nil
}

// CreateColumn adds a new column to the table. Additive only: rejected
// with TableError once any row has been inserted, matching spec.md §6's
// "additive only, before any rows exist" rule.
func (tbl *Table) CreateColumn(col ColumnDef) error {
	if tbl.rowCount > 0 {
		return &TableError{Op: "create_column", Err: ErrTypeMismatch}
	}
	if col.IsPK {
		return &TableError{Op: "create_column", Err: ErrTypeMismatch}
	}
	tbl.columns = append(tbl.columns, col)
	tbl.descriptor = append(tbl.descriptor, Column{Name: col.Name, Tag: col.Tag, VarcharN: col.VarcharN})
	if err := tbl.descriptor.Validate(); err != nil {
		tbl.columns = tbl.columns[:len(tbl.columns)-1]
		tbl.descriptor = tbl.descriptor[:len(tbl.descriptor)-1]
		return &TableError{Op: "create_column", Err: err}
	}
	return nil
}

func (tbl *Table) validateRow(row Row) error {
	if len(row) != len(tbl.descriptor) {
		return &DescriptorMismatchError{ExpectedLen: len(tbl.descriptor), GotLen: len(row)}
	}
	for i, col := range tbl.descriptor {
		if row[i].Tag != col.Tag {
			return &TypeMismatchError{Column: col.Name, Expected: col.Tag, Got: row[i].Tag.String()}
		}
	}
	return nil
}

// Insert validates row, rejects a duplicate PK, writes its encoded payload
// via the placement advisor, binds a fresh id, and indexes (pk, id). Any
// failure after the payload has been placed is rolled back in reverse
// order (identity retire, then free-space re-insert) per spec.md §4.8.
func (tbl *Table) Insert(row Row) error {
	if err := tbl.validateRow(row); err != nil {
		return &TableError{Op: "insert", Err: err}
	}
	pk := row[tbl.pkIndex]

	if _, err := tbl.index.Find(pk); err == nil {
		return &TableError{Op: "insert", Err: &DuplicateKeyError{Key: pk.String()}}
	}

	payload, err := Encode(tbl.descriptor, row)
	if err != nil {
		return &TableError{Op: "insert", Err: err}
	}

	tbl.core.mu.Lock()
	link, err := tbl.advisor.Select(tbl.core.pool, tbl.registry, len(payload))
	if err != nil {
		tbl.core.mu.Unlock()
		return &TableError{Op: "insert", Err: err}
	}
	page, err := tbl.core.pool.Page(link.Page)
	if err != nil {
		tbl.advisor.Release(tbl.registry, link)
		tbl.core.mu.Unlock()
		return &TableError{Op: "insert", Err: err}
	}
	if err := page.WriteAt(link, payload); err != nil {
		tbl.advisor.Release(tbl.registry, link)
		tbl.core.mu.Unlock()
		return &TableError{Op: "insert", Err: err}
	}

	id := tbl.core.identity.Issue()
	if err := tbl.core.identity.Bind(id, link); err != nil {
		tbl.advisor.Release(tbl.registry, link)
		tbl.core.mu.Unlock()
		return &TableError{Op: "insert", Err: err}
	}
	tbl.core.mu.Unlock()

	if err := tbl.index.Insert(pk, id); err != nil {
		tbl.core.mu.Lock()
		if retiredLink, rerr := tbl.core.identity.Retire(id); rerr == nil {
			tbl.advisor.Release(tbl.registry, retiredLink)
		}
		tbl.core.mu.Unlock()
		return &TableError{Op: "insert", Err: err}
	}

	tbl.rowCount++
	return nil
}

func (tbl *Table) rowAt(id NumericID) (Row, error) {
	tbl.core.mu.Lock()
	link, err := tbl.core.identity.Resolve(id)
	if err != nil {
		tbl.core.mu.Unlock()
		return nil, err
	}
	page, err := tbl.core.pool.Page(link.Page)
	if err != nil {
		tbl.core.mu.Unlock()
		return nil, err
	}
	payload, err := page.ReadAt(link)
	tbl.core.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return Decode(tbl.descriptor, payload)
}

// SelectAll returns every row in ascending PK order.
func (tbl *Table) SelectAll() ([]Row, error) {
	var out []Row
	next := tbl.index.IterFrom(nil)
	for {
		_, id, ok := next()
		if !ok {
			break
		}
		row, err := tbl.rowAt(id)
		if err != nil {
			return nil, &TableError{Op: "select_all", Err: err}
		}
		out = append(out, row)
	}
	return out, nil
}

// SelectByPK returns the row whose PK equals pk, or NotFound.
func (tbl *Table) SelectByPK(pk Value) (Row, error) {
	id, err := tbl.index.Find(pk)
	if err != nil {
		return nil, &TableError{Op: "select_by_pk", Err: err}
	}
	row, err := tbl.rowAt(id)
	if err != nil {
		return nil, &TableError{Op: "select_by_pk", Err: err}
	}
	return row, nil
}

// DeleteByPK removes the row whose PK equals pk and returns its prior
// value, or NotFound. The index delete, identity retire, and free-space
// release either all succeed or none does: the index delete happens
// first (furthest from shared state) so a failure there never touches
// Core, and Core's own two steps run under one lock acquisition.
func (tbl *Table) DeleteByPK(pk Value) (Row, error) {
	id, err := tbl.index.Delete(pk)
	if err != nil {
		return nil, &TableError{Op: "delete_by_pk", Err: err}
	}

	tbl.core.mu.Lock()
	link, err := tbl.core.identity.Retire(id)
	if err != nil {
		tbl.core.mu.Unlock()
		_ = tbl.index.Insert(pk, id)
		return nil, &TableError{Op: "delete_by_pk", Err: err}
	}
	page, perr := tbl.core.pool.Page(link.Page)
	var payload []byte
	if perr == nil {
		payload, err = page.ReadAt(link)
	} else {
		err = perr
	}
	tbl.advisor.Release(tbl.registry, link)
	tbl.core.mu.Unlock()
	if err != nil {
		return nil, &TableError{Op: "delete_by_pk", Err: err}
	}

	tbl.rowCount--
	return Decode(tbl.descriptor, payload)
}

// RowCount returns the number of rows currently in the table.
func (tbl *Table) RowCount() int { return tbl.rowCount }

// Columns returns the table's column list in declaration order.
func (tbl *Table) Columns() []ColumnDef { return append([]ColumnDef(nil), tbl.columns...) }

// CoalesceFreeSpace runs a one-time merge pass over the table's
// free-space registry, returning the number of adjacent region pairs
// merged. Used by the background maintenance sweep (storage.Scheduler);
// harmless to call on a registry that already coalesces on every insert.
func (tbl *Table) CoalesceFreeSpace() int {
	tbl.core.mu.Lock()
	defer tbl.core.mu.Unlock()
	return tbl.registry.CoalesceAll()
}

// FreeSpaceStats returns the number of free regions and total free bytes
// currently tracked for the table, for fragmentation logging.
func (tbl *Table) FreeSpaceStats() (regions int, freeBytes int) {
	tbl.core.mu.Lock()
	defer tbl.core.mu.Unlock()
	return tbl.registry.Len(), tbl.registry.FreeBytes()
}
