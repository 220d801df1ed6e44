// Package engine implements the command surface above the storage core:
// a lexer, parser, and compiler that lower a small SQL-like statement
// grammar to the pinned operations of the table engine (insert,
// select_all, select_by_pk, delete_by_pk); CREATE TABLE builds the whole
// table through the catalog rather than issuing create_column per column.
//
// This file focuses on the query compilation cache:
//   - What: A lightweight in-memory LRU cache that stores parsed
//     representations of statements (CompiledQuery).
//   - How: Queries are keyed by their exact SQL string. The cache holds a
//     Statement AST plus metadata (ParsedAt) and returns it to callers to
//     avoid re-parsing. LRU eviction using container/list keeps the cache
//     within a fixed size with O(1) eviction.
//   - Why: parsing the same REPL/server statement text repeatedly (a loop
//     re-running the same INSERT, a hot SELECT) shouldn't re-lex and
//     re-parse every time.
package engine

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minipagedb/minipagedb/internal/storage"
)

// CompiledQuery represents a pre-parsed and cached statement.
type CompiledQuery struct {
	SQL       string
	Statement Statement
	ParsedAt  time.Time
}

// cacheEntry pairs a cache key with its compiled query for LRU tracking.
type cacheEntry struct {
	key string
	cq  *CompiledQuery
}

// QueryCache manages compiled queries with LRU eviction.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
}

// NewQueryCache creates a new query cache with the specified maximum size.
func NewQueryCache(maxSize int) *QueryCache {
	if maxSize <= 0 {
		maxSize = 1000 // default cache size
	}
	return &QueryCache{
		entries: make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
	}
}

// Compile parses and caches a statement for reuse.
func (qc *QueryCache) Compile(sql string) (*CompiledQuery, error) {
	qc.mu.RLock()
	if elem, exists := qc.entries[sql]; exists {
		qc.mu.RUnlock()
		qc.mu.Lock()
		qc.order.MoveToFront(elem)
		qc.mu.Unlock()
		return elem.Value.(*cacheEntry).cq, nil
	}
	qc.mu.RUnlock()

	parser := NewParser(sql)
	stmt, err := parser.ParseStatement()
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}

	compiled := &CompiledQuery{
		SQL:       sql,
		Statement: stmt,
		ParsedAt:  time.Now(),
	}

	qc.mu.Lock()
	defer qc.mu.Unlock()

	// Another goroutine may have parsed and inserted the same SQL text
	// while this one held only the read lock; re-check before evicting.
	if elem, exists := qc.entries[sql]; exists {
		qc.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).cq, nil
	}

	qc.evictLocked()

	entry := &cacheEntry{key: sql, cq: compiled}
	elem := qc.order.PushFront(entry)
	qc.entries[sql] = elem
	return compiled, nil
}

// evictLocked drops the least-recently-used entry once the cache is at
// capacity. Callers hold qc.mu for writing.
func (qc *QueryCache) evictLocked() {
	if qc.order.Len() < qc.maxSize {
		return
	}
	tail := qc.order.Back()
	if tail == nil {
		return
	}
	qc.order.Remove(tail)
	delete(qc.entries, tail.Value.(*cacheEntry).key)
}

// Execute runs a compiled statement against schema within database db,
// using the table engine reachable beneath them. defaults configures any
// CREATE TABLE the statement contains; see TableDefaults.
func (cq *CompiledQuery) Execute(ctx context.Context, db *storage.Database, schema *storage.Schema, defaults TableDefaults) (*Result, error) {
	return Exec(ctx, db, schema, cq.Statement, defaults)
}

// MustCompile is like Compile but panics on error (similar to
// regexp.MustCompile).
func (qc *QueryCache) MustCompile(sql string) *CompiledQuery {
	cq, err := qc.Compile(sql)
	if err != nil {
		panic(fmt.Sprintf("MustCompile(%q): %v", sql, err))
	}
	return cq
}

// Clear removes all cached queries.
func (qc *QueryCache) Clear() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.entries = make(map[string]*list.Element, qc.maxSize)
	qc.order.Init()
}

// Size returns the number of cached queries.
func (qc *QueryCache) Size() int {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return len(qc.entries)
}

// Stats returns cache statistics.
func (qc *QueryCache) Stats() map[string]any {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	return map[string]any{
		"size":    len(qc.entries),
		"maxSize": qc.maxSize,
	}
}
