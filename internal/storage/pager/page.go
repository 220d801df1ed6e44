// Package pager implements the storage core: a page pool, a free-space
// allocator with pluggable fit strategies, an identity registry mapping
// stable row ids to page locations, a B+-Tree primary-key index, and a
// binary row codec. Everything in this package is memory-resident — there
// is no on-disk persistence, no WAL, and no crash recovery; pages live in
// a Pool shared through Core by every table created over it, and are kept
// for as long as the process runs.
package pager

import "fmt"

// PageSize is the fixed size, in bytes, of every page in a Pool. Unlike
// the teacher's on-disk pager this is a package constant rather than a
// per-pool configurable, because nothing here persists a superblock to
// record it.
const PageSize = 4096

// PageID identifies a page within a Pool. Indices are dense and monotonic:
// the pool never removes a page once allocated.
type PageID uint32

// PageLink identifies a contiguous byte region within a single page. A
// link never spans pages: Start+Len must never exceed PageSize.
type PageLink struct {
	Page  PageID
	Start uint32
	Len   uint16
}

// End returns the exclusive end offset of the link within its page.
func (l PageLink) End() uint32 { return l.Start + uint32(l.Len) }

func (l PageLink) String() string {
	return fmt.Sprintf("(%d,%d,%d)", l.Page, l.Start, l.Len)
}

// byLocationLess orders links lexicographically on (Page, Start). Used for
// equality and removal in the free-space registry, and for coalescing
// adjacent regions.
func byLocationLess(a, b PageLink) bool {
	if a.Page != b.Page {
		return a.Page < b.Page
	}
	return a.Start < b.Start
}

// byLengthLess orders links on (Len, Page, Start) — length first so the
// free-space registry can answer best/worst-fit queries in tree order,
// with location as a deterministic tie-break.
func byLengthLess(a, b PageLink) bool {
	if a.Len != b.Len {
		return a.Len < b.Len
	}
	return byLocationLess(a, b)
}

// Page is a fixed-size byte buffer plus a high-water mark of bytes that
// have ever been appended. first_free only ever advances; the set of
// holes below it that are actually free is tracked externally by the
// free-space registry (C3), not by the page itself.
type Page struct {
	index     PageID
	buf       []byte
	firstFree uint32
}

func newPage(index PageID) *Page {
	return &Page{index: index, buf: make([]byte, PageSize)}
}

// Index returns the page's own index within its pool.
func (p *Page) Index() PageID { return p.index }

// FirstFree returns the next offset at which Append would write.
func (p *Page) FirstFree() uint32 { return p.firstFree }

// Free returns the number of bytes never yet claimed by Append.
func (p *Page) Free() uint32 { return PageSize - p.firstFree }

// CanFit reports whether n bytes could be appended without growing the
// page (which pages never do — PageSize is fixed).
func (p *Page) CanFit(n int) bool {
	return uint32(n) <= p.Free()
}

func (p *Page) checkBounds(link PageLink) error {
	if link.Page != p.index {
		return &PageOutOfBoundsError{Page: link.Page, Start: link.Start, Len: link.Len}
	}
	if uint64(link.Start)+uint64(link.Len) > PageSize {
		return &PageOutOfBoundsError{Page: link.Page, Start: link.Start, Len: link.Len}
	}
	return nil
}

// WriteAt copies bytes into the region identified by link. The link's
// length must match len(bytes) exactly and the region must lie within the
// page.
func (p *Page) WriteAt(link PageLink, bytes []byte) error {
	if int(link.Len) != len(bytes) {
		return &PageOutOfBoundsError{Page: link.Page, Start: link.Start, Len: link.Len}
	}
	if err := p.checkBounds(link); err != nil {
		return err
	}
	copy(p.buf[link.Start:link.End()], bytes)
	return nil
}

// ReadAt returns a copy of the bytes in the region identified by link.
func (p *Page) ReadAt(link PageLink) ([]byte, error) {
	if err := p.checkBounds(link); err != nil {
		return nil, err
	}
	out := make([]byte, link.Len)
	copy(out, p.buf[link.Start:link.End()])
	return out, nil
}

// Append writes bytes at the current first_free watermark, advances it,
// and returns the new link. It fails with ErrPageFull if the page has no
// room; callers are expected to have already checked CanFit or to fall
// back to a fresh page.
func (p *Page) Append(bytes []byte) (PageLink, error) {
	if !p.CanFit(len(bytes)) {
		return PageLink{}, ErrPageFull
	}
	link := PageLink{Page: p.index, Start: p.firstFree, Len: uint16(len(bytes))}
	copy(p.buf[link.Start:link.End()], bytes)
	p.firstFree += uint32(len(bytes))
	return link, nil
}

// Reserve advances the first_free watermark by n bytes and returns the
// new link, zero-filled, without requiring the caller to already have the
// payload in hand. Used by the placement advisor (C4) when it decides to
// extend the page rather than reuse a free region; the caller writes the
// actual payload afterward via WriteAt.
func (p *Page) Reserve(n int) (PageLink, error) {
	if !p.CanFit(n) {
		return PageLink{}, ErrPageFull
	}
	link := PageLink{Page: p.index, Start: p.firstFree, Len: uint16(n)}
	p.firstFree += uint32(n)
	return link, nil
}

// Pool owns a contiguous, growable collection of fixed-size pages. Pages
// are addressed by dense index and are never removed, which keeps a
// PageLink trivially small and lets free-space structures refer to
// regions without holding page pointers.
type Pool struct {
	pages []*Page
}

// NewPool creates a Pool initialized with one empty page, matching the
// invariant that last_page always exists.
func NewPool() *Pool {
	pool := &Pool{}
	pool.NewPage()
	return pool
}

// NewPage appends a fresh zeroed page and returns its index.
func (p *Pool) NewPage() PageID {
	idx := PageID(len(p.pages))
	p.pages = append(p.pages, newPage(idx))
	return idx
}

// Page returns a handle to page i, or ErrNoSuchPage if out of range.
func (p *Pool) Page(i PageID) (*Page, error) {
	if int(i) >= len(p.pages) {
		return nil, &NoSuchPageError{Index: i}
	}
	return p.pages[i], nil
}

// LastPage returns the highest-indexed page. It always exists.
func (p *Pool) LastPage() *Page {
	return p.pages[len(p.pages)-1]
}

// PageCount returns the number of pages currently in the pool.
func (p *Pool) PageCount() int { return len(p.pages) }
