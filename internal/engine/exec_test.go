package engine

import (
	"context"
	"testing"

	"github.com/minipagedb/minipagedb/internal/storage"
)

func newTestSchema(t *testing.T) (*storage.Database, *storage.Schema) {
	t.Helper()
	cat := storage.NewCatalog()
	db, err := cat.CreateDatabase("testdb")
	if err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	schema, err := db.CreateSchema("public")
	if err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return db, schema
}

func run(t *testing.T, db *storage.Database, schema *storage.Schema, sql string) *Result {
	t.Helper()
	p := NewParser(sql)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement(%q): %v", sql, err)
	}
	res, err := Exec(context.Background(), db, schema, stmt, DefaultTableDefaults)
	if err != nil {
		t.Fatalf("Exec(%q): %v", sql, err)
	}
	return res
}

func TestExecCreateInsertSelect(t *testing.T) {
	db, schema := newTestSchema(t)
	run(t, db, schema, `CREATE TABLE users (id I32 PK, name VARCHAR(32))`)
	run(t, db, schema, `INSERT INTO users VALUES (1, 'alice')`)
	run(t, db, schema, `INSERT INTO users VALUES (2, 'bob')`)

	res := run(t, db, schema, `SELECT * FROM users`)
	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(res.Rows))
	}
	if res.Rows[0][0].Int64() != 1 || res.Rows[1][0].Int64() != 2 {
		t.Fatalf("rows out of PK order: %+v", res.Rows)
	}
}

func TestExecSelectByPK(t *testing.T) {
	db, schema := newTestSchema(t)
	run(t, db, schema, `CREATE TABLE users (id I32 PK, name VARCHAR(32))`)
	run(t, db, schema, `INSERT INTO users VALUES (1, 'alice')`)

	res := run(t, db, schema, `SELECT * FROM users WHERE id = 1`)
	if len(res.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(res.Rows))
	}
	if res.Rows[0][1].Str != "alice" {
		t.Fatalf("name = %q, want alice", res.Rows[0][1].Str)
	}
}

func TestExecDeleteByPK(t *testing.T) {
	db, schema := newTestSchema(t)
	run(t, db, schema, `CREATE TABLE users (id I32 PK, name VARCHAR(32))`)
	run(t, db, schema, `INSERT INTO users VALUES (1, 'alice')`)
	run(t, db, schema, `DELETE FROM users WHERE id = 1`)

	p := NewParser(`SELECT * FROM users WHERE id = 1`)
	stmt, _ := p.ParseStatement()
	if _, err := Exec(context.Background(), db, schema, stmt, DefaultTableDefaults); err == nil {
		t.Fatal("expected an error selecting a deleted row")
	}
}

func TestExecInsertDuplicatePK(t *testing.T) {
	db, schema := newTestSchema(t)
	run(t, db, schema, `CREATE TABLE users (id I32 PK, name VARCHAR(32))`)
	run(t, db, schema, `INSERT INTO users VALUES (1, 'alice')`)

	p := NewParser(`INSERT INTO users VALUES (1, 'carol')`)
	stmt, _ := p.ParseStatement()
	if _, err := Exec(context.Background(), db, schema, stmt, DefaultTableDefaults); err == nil {
		t.Fatal("expected a duplicate key error")
	}
}

func TestExecSelectFromMissingTable(t *testing.T) {
	db, schema := newTestSchema(t)
	p := NewParser(`SELECT * FROM ghost`)
	stmt, _ := p.ParseStatement()
	if _, err := Exec(context.Background(), db, schema, stmt, DefaultTableDefaults); err == nil {
		t.Fatal("expected an error selecting from a missing table")
	}
}

func TestExecNumericColumnTypes(t *testing.T) {
	db, schema := newTestSchema(t)
	run(t, db, schema, `CREATE TABLE metrics (id I32 PK, count U64, ratio F64, active BOOL)`)
	run(t, db, schema, `INSERT INTO metrics VALUES (1, 100, 0.5, true)`)

	res := run(t, db, schema, `SELECT * FROM metrics WHERE id = 1`)
	row := res.Rows[0]
	if row[1].U64 != 100 {
		t.Fatalf("count = %d, want 100", row[1].U64)
	}
	if row[2].F64 != 0.5 {
		t.Fatalf("ratio = %v, want 0.5", row[2].F64)
	}
	if !row[3].Bool {
		t.Fatal("active = false, want true")
	}
}
