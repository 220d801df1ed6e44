package storage

import (
	"testing"

	"github.com/minipagedb/minipagedb/internal/storage/pager"
)

func TestCatalogDatabaseLifecycle(t *testing.T) {
	cat := NewCatalog()

	if _, ok := cat.Database("main"); ok {
		t.Fatal("expected no database before creation")
	}
	db, err := cat.CreateDatabase("main")
	if err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if _, err := cat.CreateDatabase("main"); err == nil {
		t.Fatal("expected an error creating a duplicate database")
	}
	got, ok := cat.Database("main")
	if !ok || got != db {
		t.Fatal("Database lookup did not return the created database")
	}
	if dbs := cat.Databases(); len(dbs) != 1 || dbs[0] != "main" {
		t.Fatalf("Databases() = %v, want [main]", dbs)
	}
	if !cat.DropDatabase("main") {
		t.Fatal("DropDatabase should report success for an existing database")
	}
	if cat.DropDatabase("main") {
		t.Fatal("DropDatabase should report failure for an already-dropped database")
	}
}

func TestSchemaAndTableLifecycle(t *testing.T) {
	cat := NewCatalog()
	db, err := cat.CreateDatabase("main")
	if err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}

	schema, err := db.CreateSchema("public")
	if err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	if _, err := db.CreateSchema("public"); err == nil {
		t.Fatal("expected an error creating a duplicate schema")
	}

	cols := []Column{
		{Name: "id", Type: pager.TagI32, IsPK: true},
		{Name: "name", Type: pager.TagVarchar, VarcharN: 32},
	}
	tbl, err := schema.CreateTable(db.Core, "widgets", cols, 8, pager.BestFit, true)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := schema.CreateTable(db.Core, "widgets", cols, 8, pager.BestFit, true); err == nil {
		t.Fatal("expected an error creating a duplicate table")
	}

	got, ok := schema.Table("widgets")
	if !ok || got != tbl {
		t.Fatal("Table lookup did not return the created table")
	}
	if names := schema.Tables(); len(names) != 1 || names[0] != "widgets" {
		t.Fatalf("Tables() = %v, want [widgets]", names)
	}
	if got := tbl.Columns(); len(got) != 2 || got[0].Name != "id" || got[1].Name != "name" {
		t.Fatalf("Columns() = %+v", got)
	}

	row := pager.Row{
		{Tag: pager.TagI32, U64: 1},
		{Tag: pager.TagVarchar, Str: "bolt"},
	}
	if err := tbl.Engine().Insert(row); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	out, err := tbl.Engine().SelectByPK(pager.Value{Tag: pager.TagI32, U64: 1})
	if err != nil {
		t.Fatalf("SelectByPK: %v", err)
	}
	if out[1].Str != "bolt" {
		t.Fatalf("SelectByPK returned %+v", out)
	}

	if !schema.DropTable("widgets") {
		t.Fatal("DropTable should report success for an existing table")
	}
	if !db.DropSchema("public") {
		t.Fatal("DropSchema should report success for an existing schema")
	}
}

func TestCreateTableWithLocaleOrdersByCollation(t *testing.T) {
	cat := NewCatalog()
	db, err := cat.CreateDatabase("main")
	if err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	schema, err := db.CreateSchema("public")
	if err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	cols := []Column{{Name: "name", Type: pager.TagVarchar, VarcharN: 32, IsPK: true}}
	tbl, err := schema.CreateTableWithLocale(db.Core, "cities", cols, 8, pager.BestFit, true, "de")
	if err != nil {
		t.Fatalf("CreateTableWithLocale: %v", err)
	}

	for _, name := range []string{"Oskar", "Österreich", "Zeta"} {
		if err := tbl.Engine().Insert(pager.Row{{Tag: pager.TagVarchar, Str: name}}); err != nil {
			t.Fatalf("Insert(%s): %v", name, err)
		}
	}

	rows, err := tbl.Engine().SelectAll()
	if err != nil {
		t.Fatalf("SelectAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	// German collation orders "Österreich" with/near "O", strictly before
	// "Zeta" — unlike plain byte-wise order, which would put it last.
	if rows[len(rows)-1][0].Str != "Zeta" {
		t.Fatalf("expected Zeta last under de collation, got order %v", rows)
	}
}

func TestAddColumnRejectsAfterRowsExist(t *testing.T) {
	cat := NewCatalog()
	db, err := cat.CreateDatabase("main")
	if err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	schema, err := db.CreateSchema("public")
	if err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	cols := []Column{{Name: "id", Type: pager.TagI32, IsPK: true}}
	tbl, err := schema.CreateTable(db.Core, "t", cols, 8, pager.BestFit, true)
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := tbl.Engine().Insert(pager.Row{{Tag: pager.TagI32, U64: 1}}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tbl.AddColumn(Column{Name: "extra", Type: pager.TagBool}); err == nil {
		t.Fatal("expected AddColumn to fail once rows exist")
	}
}
