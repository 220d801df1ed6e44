package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/minipagedb/minipagedb/internal/config"
	"github.com/minipagedb/minipagedb/internal/engine"
	"github.com/minipagedb/minipagedb/internal/storage"
	"github.com/minipagedb/minipagedb/internal/storage/pager"
)

func newTestREPL(t *testing.T) *repl {
	t.Helper()
	cfg := config.Default()
	catalog := storage.NewCatalog()
	db, schema, err := openDefault(catalog, cfg)
	if err != nil {
		t.Fatalf("openDefault: %v", err)
	}
	return &repl{
		catalog:  catalog,
		db:       db,
		schema:   schema,
		cache:    engine.NewQueryCache(200),
		format:   "table",
		defaults: engine.DefaultTableDefaults,
	}
}

func TestREPLRunExecutesStatements(t *testing.T) {
	r := newTestREPL(t)

	in, err := os.CreateTemp(t.TempDir(), "repl-in")
	if err != nil {
		t.Fatal(err)
	}
	script := "CREATE TABLE t (id I32 PK);\nINSERT INTO t VALUES (1);\nSELECT * FROM t;\n"
	if _, err := in.WriteString(script); err != nil {
		t.Fatal(err)
	}
	if _, err := in.Seek(0, 0); err != nil {
		t.Fatal(err)
	}

	outFile, err := os.CreateTemp(t.TempDir(), "repl-out")
	if err != nil {
		t.Fatal(err)
	}

	r.run(in, outFile)

	if _, err := outFile.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(outFile)
	out := buf.String()
	if !strings.Contains(out, "id") || !strings.Contains(out, "1") {
		t.Fatalf("expected SELECT output to contain the inserted row, got:\n%s", out)
	}
}

func TestREPLMetaTables(t *testing.T) {
	r := newTestREPL(t)
	cols := []storage.Column{{Name: "id", Type: pager.TagI32, IsPK: true}}
	if _, err := r.schema.CreateTable(r.db.Core, "widgets", cols, 64, pager.BestFit, true); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	var out bytes.Buffer
	outFile, err := os.CreateTemp(t.TempDir(), "repl-meta-out")
	if err != nil {
		t.Fatal(err)
	}
	if !r.handleMeta(outFile, ".tables") {
		t.Fatal("handleMeta(.tables) should not terminate the session")
	}
	if r.handleMeta(outFile, ".exit") {
		t.Fatal("handleMeta(.exit) should terminate the session")
	}

	if _, err := outFile.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	out.ReadFrom(outFile)
	if !strings.Contains(out.String(), "widgets") {
		t.Fatalf("expected .tables output to list widgets, got:\n%s", out.String())
	}
}
