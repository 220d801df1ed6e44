// Command repl is an interactive shell over the storage core: it reads
// statements from stdin, compiles them through internal/engine, and prints
// the result set in one of a few plain-text formats. It is the REPL/front
// end spec.md §1 calls "deliberately out of scope" for the core itself —
// a thin, pinned-interface client of internal/storage and internal/engine.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minipagedb/minipagedb/internal/config"
	"github.com/minipagedb/minipagedb/internal/engine"
	"github.com/minipagedb/minipagedb/internal/storage"
	"github.com/minipagedb/minipagedb/internal/storage/pager"
)

var (
	flagConfig = flag.String("config", "", "Path to a YAML config file (optional; built-in defaults otherwise)")
	flagEcho   = flag.Bool("echo", false, "Echo each statement before running it")
	flagFormat = flag.String("format", "table", "Output format: table, csv, tsv, json, yaml")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, "repl: config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	catalog := storage.NewCatalog()
	db, schema, err := openDefault(catalog, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "repl:", err)
		os.Exit(1)
	}

	r := &repl{
		catalog: catalog,
		db:      db,
		schema:  schema,
		cache:   engine.NewQueryCache(200),
		format:  *flagFormat,
		echo:    *flagEcho,
		defaults: engine.TableDefaults{
			Fanout:   cfg.Engine.Fanout,
			Strategy: cfg.Engine.FitStrategy(),
			Coalesce: cfg.Engine.Coalesce,
		},
	}
	r.run(os.Stdin, os.Stdout)
}

// openDefault creates the single database/schema the REPL operates
// against, named by cfg. A fresh in-memory catalog always starts empty,
// so "already exists" is never expected here.
func openDefault(catalog *storage.Catalog, cfg *config.ServerConfig) (*storage.Database, *storage.Schema, error) {
	db, err := catalog.CreateDatabase(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	schema, err := db.CreateSchema(cfg.Schema)
	if err != nil {
		return nil, nil, err
	}
	return db, schema, nil
}

type repl struct {
	catalog  *storage.Catalog
	db       *storage.Database
	schema   *storage.Schema
	cache    *engine.QueryCache
	format   string
	echo     bool
	defaults engine.TableDefaults
}

// run reads statements terminated by ';' from in, accumulating lines until
// a trailing semicolon closes a statement, and handles '.'-prefixed meta
// commands inline. It mirrors the teacher's REPL loop shape (accumulate,
// then hand the whole buffer to the compiler) narrowed to this engine's
// four-statement grammar.
func (r *repl) run(in *os.File, out *os.File) {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 1024), 4*1024*1024)

	interactive := false
	if fi, err := in.Stat(); err == nil {
		interactive = (fi.Mode() & os.ModeCharDevice) != 0
	}

	var buf strings.Builder
	firstPrompt := true
	for {
		if buf.Len() == 0 {
			if interactive {
				if !firstPrompt {
					fmt.Fprintln(out)
				}
				firstPrompt = false
				fmt.Fprint(out, "sql> ")
			}
		} else if interactive {
			fmt.Fprint(out, " ... ")
		}

		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				fmt.Fprintln(os.Stderr, "repl: read error:", err)
			}
			return
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if !r.handleMeta(out, line) {
				return
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteByte(' ')
		if strings.HasSuffix(line, ";") {
			stmt := strings.TrimSpace(buf.String())
			buf.Reset()
			if r.echo {
				fmt.Fprintln(out, stmt)
			}
			r.runStatement(out, stmt)
		}
	}
}

func (r *repl) handleMeta(out *os.File, line string) bool {
	switch {
	case line == ".exit" || line == ".quit":
		return false
	case line == ".help":
		fmt.Fprintln(out, `meta commands:
  .tables              list tables in the default schema
  .tableinfo <name|id>  show a table's catalog ID, looked up by name or by
                        a previously printed ID
  .format <name>       set output format (table, csv, tsv, json, yaml)
  .help                this message
  .exit                quit`)
	case line == ".tables":
		for _, name := range r.schema.Tables() {
			fmt.Fprintln(out, name)
		}
	case strings.HasPrefix(line, ".tableinfo"):
		r.tableInfo(out, strings.TrimSpace(strings.TrimPrefix(line, ".tableinfo")))
	case strings.HasPrefix(line, ".format"):
		parts := strings.Fields(line)
		if len(parts) == 2 {
			r.format = parts[1]
		}
		fmt.Fprintln(out, "format:", r.format)
	default:
		fmt.Fprintln(out, "unknown meta command:", line)
	}
	return true
}

// tableInfo resolves arg to a table — first by name, then, if that fails,
// by parsing arg as a catalog ID and looking it up by ID (TableByID) — and
// prints its name, its ID, and the ID's raw 16-byte form as hex. An ID
// names one table only: a table dropped and recreated under the same name
// gets a new ID, and the old ID no longer resolves.
func (r *repl) tableInfo(out *os.File, arg string) {
	if arg == "" {
		fmt.Fprintln(out, "usage: .tableinfo <name|id>")
		return
	}
	tbl, ok := r.schema.Table(arg)
	if !ok {
		id, err := storage.ParseUUID(arg)
		if err != nil {
			fmt.Fprintln(out, "no such table:", arg)
			return
		}
		tbl, ok = r.schema.TableByID(id)
		if !ok {
			fmt.Fprintln(out, "no such table:", arg)
			return
		}
	}
	fmt.Fprintf(out, "name: %s\nid:   %s\nbytes: %x\n", tbl.Name, tbl.ID, storage.UUIDToBytes(tbl.ID))
}

func (r *repl) runStatement(out *os.File, sql string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	compiled, err := r.cache.Compile(sql)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		return
	}
	result, err := compiled.Execute(ctx, r.db, r.schema, r.defaults)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		return
	}
	printResult(out, r.format, result)
}

func printResult(out *os.File, format string, res *engine.Result) {
	if res.Columns == nil {
		fmt.Fprintf(out, "OK (%d row(s) affected)\n", res.RowsAffected)
		return
	}
	switch format {
	case "json":
		printJSON(out, res)
	case "yaml":
		printYAML(out, res)
	case "csv":
		printDelimited(out, res, ',')
	case "tsv":
		printDelimited(out, res, '\t')
	default:
		printTable(out, res)
	}
}

func rowMaps(res *engine.Result) []map[string]string {
	out := make([]map[string]string, len(res.Rows))
	for i, row := range res.Rows {
		m := make(map[string]string, len(res.Columns))
		for j, col := range res.Columns {
			var v pager.Value
			if j < len(row) {
				v = row[j]
			}
			m[col] = v.String()
		}
		out[i] = m
	}
	return out
}

func printTable(out *os.File, res *engine.Result) {
	widths := make([]int, len(res.Columns))
	for i, c := range res.Columns {
		widths[i] = len(c)
	}
	rendered := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		rendered[i] = make([]string, len(res.Columns))
		for j := range res.Columns {
			s := ""
			if j < len(row) {
				s = row[j].String()
			}
			rendered[i][j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
	}
	printRow(out, res.Columns, widths)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	printRow(out, sep, widths)
	for _, row := range rendered {
		printRow(out, row, widths)
	}
	fmt.Fprintf(out, "(%d row(s))\n", len(res.Rows))
}

func printRow(out *os.File, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], c)
	}
	fmt.Fprintln(out, strings.Join(parts, " | "))
}

func printDelimited(out *os.File, res *engine.Result, delim rune) {
	w := csv.NewWriter(out)
	w.Comma = delim
	_ = w.Write(res.Columns)
	for _, row := range res.Rows {
		cells := make([]string, len(res.Columns))
		for j := range res.Columns {
			if j < len(row) {
				cells[j] = row[j].String()
			}
		}
		_ = w.Write(cells)
	}
	w.Flush()
}

func printJSON(out *os.File, res *engine.Result) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rowMaps(res))
}

func printYAML(out *os.File, res *engine.Result) {
	b, err := yaml.Marshal(rowMaps(res))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		return
	}
	out.Write(b)
}
