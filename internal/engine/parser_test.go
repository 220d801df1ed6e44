package engine

import "testing"

func TestParseCreateTable(t *testing.T) {
	p := NewParser(`CREATE TABLE users (id I32 PK, name VARCHAR(32), active BOOL)`)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	ct, ok := stmt.(*CreateTable)
	if !ok {
		t.Fatalf("stmt = %T, want *CreateTable", stmt)
	}
	if ct.Table != "users" {
		t.Fatalf("Table = %q, want users", ct.Table)
	}
	if len(ct.Columns) != 3 {
		t.Fatalf("len(Columns) = %d, want 3", len(ct.Columns))
	}
	if ct.Columns[0].Name != "id" || ct.Columns[0].Type != "I32" || !ct.Columns[0].IsPK {
		t.Fatalf("Columns[0] = %+v", ct.Columns[0])
	}
	if ct.Columns[1].Name != "name" || ct.Columns[1].Type != "VARCHAR" || ct.Columns[1].VarcharN != 32 {
		t.Fatalf("Columns[1] = %+v", ct.Columns[1])
	}
	if ct.Columns[2].Name != "active" || ct.Columns[2].Type != "BOOL" || ct.Columns[2].IsPK {
		t.Fatalf("Columns[2] = %+v", ct.Columns[2])
	}
}

func TestParseCreateTablePrimaryKeyKeywords(t *testing.T) {
	p := NewParser(`CREATE TABLE t (id U64 PRIMARY KEY)`)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	ct := stmt.(*CreateTable)
	if !ct.Columns[0].IsPK {
		t.Fatal("expected PRIMARY KEY column to be marked IsPK")
	}
}

func TestParseInsert(t *testing.T) {
	p := NewParser(`INSERT INTO users VALUES (1, 'alice', true)`)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	ins, ok := stmt.(*Insert)
	if !ok {
		t.Fatalf("stmt = %T, want *Insert", stmt)
	}
	if ins.Table != "users" {
		t.Fatalf("Table = %q, want users", ins.Table)
	}
	if len(ins.Values) != 3 {
		t.Fatalf("len(Values) = %d, want 3", len(ins.Values))
	}
	if v, ok := ins.Values[0].Val.(int64); !ok || v != 1 {
		t.Fatalf("Values[0] = %+v, want int64 1", ins.Values[0])
	}
	if v, ok := ins.Values[1].Val.(string); !ok || v != "alice" {
		t.Fatalf("Values[1] = %+v, want string alice", ins.Values[1])
	}
	if v, ok := ins.Values[2].Val.(bool); !ok || v != true {
		t.Fatalf("Values[2] = %+v, want bool true", ins.Values[2])
	}
}

func TestParseSelectAll(t *testing.T) {
	p := NewParser(`SELECT * FROM users`)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	sel, ok := stmt.(*Select)
	if !ok {
		t.Fatalf("stmt = %T, want *Select", stmt)
	}
	if sel.Table != "users" || sel.HasWhere {
		t.Fatalf("sel = %+v", sel)
	}
}

func TestParseSelectWithWhere(t *testing.T) {
	p := NewParser(`SELECT * FROM users WHERE id = 42`)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	sel := stmt.(*Select)
	if !sel.HasWhere {
		t.Fatal("expected HasWhere")
	}
	if v, ok := sel.PK.Val.(int64); !ok || v != 42 {
		t.Fatalf("PK = %+v, want int64 42", sel.PK)
	}
}

func TestParseDelete(t *testing.T) {
	p := NewParser(`DELETE FROM users WHERE id = 7`)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	del, ok := stmt.(*Delete)
	if !ok {
		t.Fatalf("stmt = %T, want *Delete", stmt)
	}
	if del.Table != "users" {
		t.Fatalf("Table = %q, want users", del.Table)
	}
	if v, ok := del.PK.Val.(int64); !ok || v != 7 {
		t.Fatalf("PK = %+v, want int64 7", del.PK)
	}
}

func TestParseNegativeLiteral(t *testing.T) {
	p := NewParser(`DELETE FROM t WHERE id = -5`)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement: %v", err)
	}
	del := stmt.(*Delete)
	if v, ok := del.PK.Val.(int64); !ok || v != -5 {
		t.Fatalf("PK = %+v, want int64 -5", del.PK)
	}
}

func TestParseRejectsUnknownStatement(t *testing.T) {
	p := NewParser(`DROP TABLE users`)
	if _, err := p.ParseStatement(); err == nil {
		t.Fatal("expected a parse error for an unsupported statement")
	}
}

func TestParseRejectsMalformedCreateTable(t *testing.T) {
	p := NewParser(`CREATE TABLE users id I32`)
	if _, err := p.ParseStatement(); err == nil {
		t.Fatal("expected a parse error for missing parens")
	}
}
