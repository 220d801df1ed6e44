package pager

// ───────────────────────────────────────────────────────────────────────────
// Identity registry (C5)
// ───────────────────────────────────────────────────────────────────────────

// NumericID is a stable, opaque row identifier. Zero is reserved as
// "absent" and is never issued.
type NumericID uint64

// IdentityRegistry issues stable row ids, reuses retired ones LIFO, and
// maps id <-> PageLink. It is the only place a row's current physical
// location is recorded; the B-Tree (C8) never stores a PageLink directly,
// only the NumericID, so rows can be relocated without touching the
// index.
type IdentityRegistry struct {
	counter uint64
	empty   []NumericID
	links   map[NumericID]PageLink
}

// NewIdentityRegistry creates an empty identity registry.
func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{links: make(map[NumericID]PageLink)}
}

// Issue pops a retired id if any are available (LIFO), otherwise advances
// the counter and returns a fresh one.
func (reg *IdentityRegistry) Issue() NumericID {
	if n := len(reg.empty); n > 0 {
		id := reg.empty[n-1]
		reg.empty = reg.empty[:n-1]
		return id
	}
	reg.counter++
	return NumericID(reg.counter)
}

// Bind records the id -> link mapping. It fails with ErrAlreadyBound if
// id is currently live.
func (reg *IdentityRegistry) Bind(id NumericID, link PageLink) error {
	if _, live := reg.links[id]; live {
		return ErrAlreadyBound
	}
	reg.links[id] = link
	return nil
}

// Resolve returns the link bound to id, or ErrUnknownID.
func (reg *IdentityRegistry) Resolve(id NumericID) (PageLink, error) {
	link, ok := reg.links[id]
	if !ok {
		return PageLink{}, ErrUnknownID
	}
	return link, nil
}

// Retire removes the id's binding, pushes the id onto the reuse list, and
// returns its prior link so the caller can forward it to the free-space
// registry.
func (reg *IdentityRegistry) Retire(id NumericID) (PageLink, error) {
	link, ok := reg.links[id]
	if !ok {
		return PageLink{}, ErrUnknownID
	}
	delete(reg.links, id)
	reg.empty = append(reg.empty, id)
	return link, nil
}

// LiveCount returns the number of currently bound ids.
func (reg *IdentityRegistry) LiveCount() int { return len(reg.links) }
