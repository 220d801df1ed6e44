package pager

import "testing"

func TestRegistryInsertRemoveLen(t *testing.T) {
	r := NewRegistry(false)
	a := PageLink{Page: 0, Start: 0, Len: 10}
	b := PageLink{Page: 0, Start: 20, Len: 5}
	r.Insert(a)
	r.Insert(b)
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if !r.Remove(a) {
		t.Fatal("Remove(a) = false, want true")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() after Remove = %d, want 1", r.Len())
	}
	if r.Remove(a) {
		t.Fatal("Remove(a) again = true, want false")
	}
}

func TestRegistryBestFitPicksSmallestSufficientRegion(t *testing.T) {
	r := NewRegistry(false)
	r.Insert(PageLink{Page: 0, Start: 0, Len: 100})
	r.Insert(PageLink{Page: 0, Start: 200, Len: 20})
	r.Insert(PageLink{Page: 0, Start: 300, Len: 50})

	got, ok := r.BestFit(16)
	if !ok {
		t.Fatal("BestFit(16) found nothing")
	}
	if got.Len != 20 {
		t.Fatalf("BestFit(16).Len = %d, want 20", got.Len)
	}

	if _, ok := r.BestFit(1000); ok {
		t.Fatal("BestFit(1000) should find nothing when no region is big enough")
	}
}

func TestRegistryWorstFitPicksLargestRegion(t *testing.T) {
	r := NewRegistry(false)
	r.Insert(PageLink{Page: 0, Start: 0, Len: 100})
	r.Insert(PageLink{Page: 0, Start: 200, Len: 20})
	r.Insert(PageLink{Page: 0, Start: 300, Len: 500})

	got, ok := r.WorstFit()
	if !ok {
		t.Fatal("WorstFit() found nothing")
	}
	if got.Len != 500 {
		t.Fatalf("WorstFit().Len = %d, want 500", got.Len)
	}

	empty := NewRegistry(false)
	if _, ok := empty.WorstFit(); ok {
		t.Fatal("WorstFit() on empty registry should report false")
	}
}

func TestRegistryInsertCoalescesAdjacentRegions(t *testing.T) {
	r := NewRegistry(true)
	r.Insert(PageLink{Page: 0, Start: 0, Len: 10})
	r.Insert(PageLink{Page: 0, Start: 10, Len: 10})
	if r.Len() != 1 {
		t.Fatalf("Len() after adjacent inserts = %d, want 1 (coalesced)", r.Len())
	}
	merged := r.Iter()[0]
	if merged.Start != 0 || merged.Len != 20 {
		t.Fatalf("coalesced region = %+v, want start=0 len=20", merged)
	}

	// Insert a region that bridges a left and a right neighbor in one shot.
	r.Insert(PageLink{Page: 0, Start: 30, Len: 5})
	r.Insert(PageLink{Page: 0, Start: 20, Len: 10})
	if r.Len() != 1 {
		t.Fatalf("Len() after bridging insert = %d, want 1", r.Len())
	}
	bridged := r.Iter()[0]
	if bridged.Start != 0 || bridged.Len != 35 {
		t.Fatalf("bridged region = %+v, want start=0 len=35", bridged)
	}
}

func TestRegistryNoCoalesceKeepsRegionsSeparate(t *testing.T) {
	r := NewRegistry(false)
	r.Insert(PageLink{Page: 0, Start: 0, Len: 10})
	r.Insert(PageLink{Page: 0, Start: 10, Len: 10})
	if r.Len() != 2 {
		t.Fatalf("Len() with coalesce=false = %d, want 2", r.Len())
	}
}

func TestRegistryCoalesceAllMergesPriorFragmentation(t *testing.T) {
	r := NewRegistry(false)
	r.Insert(PageLink{Page: 0, Start: 0, Len: 10})
	r.Insert(PageLink{Page: 0, Start: 10, Len: 10})
	r.Insert(PageLink{Page: 0, Start: 20, Len: 10})
	r.Insert(PageLink{Page: 1, Start: 0, Len: 5}) // different page, must not merge

	merged := r.CoalesceAll()
	if merged != 2 {
		t.Fatalf("CoalesceAll() merged = %d, want 2", merged)
	}
	if r.Len() != 2 {
		t.Fatalf("Len() after CoalesceAll = %d, want 2", r.Len())
	}
	var sawPage0, sawPage1 bool
	for _, l := range r.Iter() {
		if l.Page == 0 {
			sawPage0 = true
			if l.Start != 0 || l.Len != 30 {
				t.Fatalf("page 0 region = %+v, want start=0 len=30", l)
			}
		}
		if l.Page == 1 {
			sawPage1 = true
			if l.Len != 5 {
				t.Fatalf("page 1 region = %+v, want len=5", l)
			}
		}
	}
	if !sawPage0 || !sawPage1 {
		t.Fatalf("expected regions on both page 0 and page 1, got %v", r.Iter())
	}
}

func TestRegistryFreeBytes(t *testing.T) {
	r := NewRegistry(false)
	r.Insert(PageLink{Page: 0, Start: 0, Len: 10})
	r.Insert(PageLink{Page: 0, Start: 50, Len: 25})
	if got := r.FreeBytes(); got != 35 {
		t.Fatalf("FreeBytes() = %d, want 35", got)
	}
}
