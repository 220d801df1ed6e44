package engine

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/minipagedb/minipagedb/internal/storage"
	"github.com/minipagedb/minipagedb/internal/storage/pager"
)

// TableDefaults holds the B-Tree fanout, placement strategy, and
// free-space coalescing policy applied to every CREATE TABLE statement
// compiled through this package. The grammar has no syntax for overriding
// these per-table; a caller that needs a different fanout or fit strategy
// for one table creates it directly through the storage package instead of
// going through SQL text. Callers normally build this from
// config.EngineConfig (see cmd/server, cmd/repl) rather than constructing
// it by hand.
type TableDefaults struct {
	Fanout   int
	Strategy pager.FitStrategy
	Coalesce bool
}

// DefaultTableDefaults is the fallback used by callers (and tests) that
// don't load a config file, matching config.Default()'s Engine section.
var DefaultTableDefaults = TableDefaults{Fanout: 64, Strategy: pager.BestFit, Coalesce: true}

// Result is what executing a statement produces. Columns and Rows are set
// only for SELECT; RowsAffected is set for INSERT, DELETE, and CREATE TABLE
// (1 on success).
type Result struct {
	Columns      []string
	Rows         []pager.Row
	RowsAffected int
}

// Exec runs stmt against schema within database db, applying defaults to
// any CREATE TABLE statement it contains.
func Exec(ctx context.Context, db *storage.Database, schema *storage.Schema, stmt Statement, defaults TableDefaults) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *CreateTable:
		return execCreateTable(schema, db, s, defaults)
	case *Insert:
		return execInsert(schema, s)
	case *Select:
		return execSelect(schema, s)
	case *Delete:
		return execDelete(schema, s)
	default:
		return nil, fmt.Errorf("engine: unsupported statement type %T", stmt)
	}
}

func execCreateTable(schema *storage.Schema, db *storage.Database, ct *CreateTable, defaults TableDefaults) (*Result, error) {
	cols := make([]storage.Column, len(ct.Columns))
	pkSeen := false
	for i, c := range ct.Columns {
		tag, ok := typeTagForKeyword(c.Type)
		if !ok {
			return nil, fmt.Errorf("engine: unknown column type %q for column %q", c.Type, c.Name)
		}
		if c.IsPK {
			if pkSeen {
				return nil, fmt.Errorf("engine: table %q declares more than one primary key", ct.Table)
			}
			pkSeen = true
		}
		cols[i] = storage.Column{Name: c.Name, Type: tag, VarcharN: c.VarcharN, IsPK: c.IsPK}
	}
	if !pkSeen {
		return nil, fmt.Errorf("engine: table %q must declare exactly one primary key column", ct.Table)
	}

	if _, err := schema.CreateTable(db.Core, ct.Table, cols, defaults.Fanout, defaults.Strategy, defaults.Coalesce); err != nil {
		return nil, err
	}
	return &Result{RowsAffected: 1}, nil
}

func execInsert(schema *storage.Schema, ins *Insert) (*Result, error) {
	tbl, ok := schema.Table(ins.Table)
	if !ok {
		return nil, fmt.Errorf("engine: no such table %q", ins.Table)
	}
	cols := tbl.Columns()
	if len(ins.Values) != len(cols) {
		return nil, fmt.Errorf("engine: table %q has %d columns, INSERT supplied %d values", ins.Table, len(cols), len(ins.Values))
	}

	row := make(pager.Row, len(cols))
	for i, col := range cols {
		v, err := literalToValue(ins.Values[i], col)
		if err != nil {
			return nil, fmt.Errorf("engine: column %q: %w", col.Name, err)
		}
		row[i] = v
	}

	if err := tbl.Engine().Insert(row); err != nil {
		return nil, err
	}
	return &Result{RowsAffected: 1}, nil
}

func execSelect(schema *storage.Schema, sel *Select) (*Result, error) {
	tbl, ok := schema.Table(sel.Table)
	if !ok {
		return nil, fmt.Errorf("engine: no such table %q", sel.Table)
	}
	cols := tbl.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	if !sel.HasWhere {
		rows, err := tbl.Engine().SelectAll()
		if err != nil {
			return nil, err
		}
		return &Result{Columns: names, Rows: rows}, nil
	}

	pkCol, err := pkColumn(cols)
	if err != nil {
		return nil, err
	}
	pk, err := literalToValue(sel.PK, pkCol)
	if err != nil {
		return nil, fmt.Errorf("engine: WHERE clause: %w", err)
	}
	row, err := tbl.Engine().SelectByPK(pk)
	if err != nil {
		return nil, err
	}
	return &Result{Columns: names, Rows: []pager.Row{row}}, nil
}

func execDelete(schema *storage.Schema, del *Delete) (*Result, error) {
	tbl, ok := schema.Table(del.Table)
	if !ok {
		return nil, fmt.Errorf("engine: no such table %q", del.Table)
	}
	cols := tbl.Columns()
	pkCol, err := pkColumn(cols)
	if err != nil {
		return nil, err
	}
	pk, err := literalToValue(del.PK, pkCol)
	if err != nil {
		return nil, fmt.Errorf("engine: WHERE clause: %w", err)
	}
	if _, err := tbl.Engine().DeleteByPK(pk); err != nil {
		return nil, err
	}
	return &Result{RowsAffected: 1}, nil
}

func pkColumn(cols []storage.Column) (storage.Column, error) {
	for _, c := range cols {
		if c.IsPK {
			return c, nil
		}
	}
	return storage.Column{}, fmt.Errorf("engine: table has no primary key column")
}

func typeTagForKeyword(kw string) (pager.TypeTag, bool) {
	switch kw {
	case "BOOL":
		return pager.TagBool, true
	case "U8":
		return pager.TagU8, true
	case "U16":
		return pager.TagU16, true
	case "U32":
		return pager.TagU32, true
	case "U64":
		return pager.TagU64, true
	case "U128":
		return pager.TagU128, true
	case "I8":
		return pager.TagI8, true
	case "I16":
		return pager.TagI16, true
	case "I32":
		return pager.TagI32, true
	case "I64":
		return pager.TagI64, true
	case "I128":
		return pager.TagI128, true
	case "F32":
		return pager.TagF32, true
	case "F64":
		return pager.TagF64, true
	case "VARCHAR":
		return pager.TagVarchar, true
	default:
		return 0, false
	}
}

// literalToValue converts a parsed literal into a pager.Value matching
// col's type tag.
func literalToValue(lit Literal, col storage.Column) (pager.Value, error) {
	switch col.Type {
	case pager.TagVarchar:
		s, ok := lit.Val.(string)
		if !ok {
			return pager.Value{}, fmt.Errorf("expected a string literal, got %T", lit.Val)
		}
		return pager.Value{Tag: pager.TagVarchar, Str: s}, nil
	case pager.TagBool:
		b, ok := lit.Val.(bool)
		if !ok {
			return pager.Value{}, fmt.Errorf("expected a boolean literal, got %T", lit.Val)
		}
		return pager.Value{Tag: pager.TagBool, Bool: b}, nil
	case pager.TagF32:
		f, err := literalFloat(lit)
		if err != nil {
			return pager.Value{}, err
		}
		return pager.Value{Tag: pager.TagF32, F32: float32(f)}, nil
	case pager.TagF64:
		f, err := literalFloat(lit)
		if err != nil {
			return pager.Value{}, err
		}
		return pager.Value{Tag: pager.TagF64, F64: f}, nil
	case pager.TagU128, pager.TagI128:
		i, err := literalInt(lit)
		if err != nil {
			return pager.Value{}, err
		}
		var w [16]byte
		if i < 0 {
			for j := range w {
				w[j] = 0xff
			}
		}
		binary.BigEndian.PutUint64(w[8:], uint64(i))
		return pager.Value{Tag: col.Type, Wide128: w}, nil
	default:
		i, err := literalInt(lit)
		if err != nil {
			return pager.Value{}, err
		}
		return pager.Value{Tag: col.Type, U64: uint64(i)}, nil
	}
}

func literalInt(lit Literal) (int64, error) {
	i, ok := lit.Val.(int64)
	if !ok {
		return 0, fmt.Errorf("expected an integer literal, got %T", lit.Val)
	}
	return i, nil
}

func literalFloat(lit Literal) (float64, error) {
	switch v := lit.Val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected a numeric literal, got %T", lit.Val)
	}
}
