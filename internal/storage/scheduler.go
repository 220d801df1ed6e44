package storage

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic background maintenance over a Catalog: it walks
// every table reachable from every database/schema and coalesces adjacent
// free regions, logging fragmentation stats before and after. This keeps
// tables whose registries were created with coalesce=false, or that
// accumulated fragmentation faster than per-insert merging could keep up
// with, from growing unboundedly fragmented over a long-running process.
type Scheduler struct {
	catalog *Catalog
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler that sweeps catalog on a cron schedule.
func NewScheduler(catalog *Catalog) *Scheduler {
	loc, _ := time.LoadLocation("UTC")
	return &Scheduler{catalog: catalog, cron: cron.New(cron.WithLocation(loc))}
}

// Start registers the coalescing sweep on spec and starts the cron loop.
// spec is a standard 5-field cron expression (e.g. "*/5 * * * *" for every
// five minutes).
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	s.running = true
	log.Printf("storage: maintenance scheduler started (%s)", spec)
	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	log.Println("storage: maintenance scheduler stopped")
}

// sweep walks every table in the catalog, coalescing free space and
// logging fragmentation stats.
func (s *Scheduler) sweep() {
	for _, dbName := range s.catalog.Databases() {
		db, ok := s.catalog.Database(dbName)
		if !ok {
			continue
		}
		for _, schemaName := range db.Schemas() {
			schema, ok := db.Schema(schemaName)
			if !ok {
				continue
			}
			for _, tableName := range schema.Tables() {
				table, ok := schema.Table(tableName)
				if !ok {
					continue
				}
				regionsBefore, bytesBefore := table.Engine().FreeSpaceStats()
				merged := table.Engine().CoalesceFreeSpace()
				regionsAfter, bytesAfter := table.Engine().FreeSpaceStats()
				if merged > 0 {
					log.Printf(
						"storage: coalesced %s.%s.%s: %d merge(s), %d->%d free regions (%d bytes free, was %d)",
						dbName, schemaName, tableName, merged, regionsBefore, regionsAfter, bytesAfter, bytesBefore,
					)
				}
			}
		}
	}
}
