package pager

import "fmt"

// Sentinel errors for the structural and typing error kinds of the storage
// core. Callers compare with errors.Is; wrapper types below carry the
// context spec.md §7 asks for while still matching their sentinel via
// Unwrap.
var (
	// ErrDuplicateKey is returned when a B-Tree insert finds the key
	// already present.
	ErrDuplicateKey = fmt.Errorf("duplicate key")

	// ErrNotFound is returned when a lookup or delete targets a key or row
	// id that isn't present.
	ErrNotFound = fmt.Errorf("not found")

	// ErrNoSuchPage is returned when a page index is out of range.
	ErrNoSuchPage = fmt.Errorf("no such page")

	// ErrPageOutOfBounds is returned when a PageLink's region doesn't fit
	// inside its page.
	ErrPageOutOfBounds = fmt.Errorf("page out of bounds")

	// ErrPageFull is returned by Page.Append when the page has no room.
	ErrPageFull = fmt.Errorf("page full")

	// ErrTypeMismatch is returned when a row value doesn't match its
	// column's declared type.
	ErrTypeMismatch = fmt.Errorf("type mismatch")

	// ErrDescriptorMismatch is returned when a payload's length doesn't
	// match the sum of its descriptor's widths.
	ErrDescriptorMismatch = fmt.Errorf("descriptor mismatch")

	// ErrInvalidTag is returned when the codec encounters an unrecognised
	// type tag byte.
	ErrInvalidTag = fmt.Errorf("invalid type tag")

	// ErrAlreadyBound is returned by the identity registry when binding an
	// id that is already live.
	ErrAlreadyBound = fmt.Errorf("id already bound")

	// ErrUnknownID is returned by the identity registry when resolving or
	// retiring an id that isn't bound.
	ErrUnknownID = fmt.Errorf("unknown id")
)

// Fatal invariant-violation errors. A caller encountering one of these has
// found a bug, not a recoverable condition; implementations MAY abort.
var (
	ErrCorruptIndex         = fmt.Errorf("corrupt index")
	ErrDanglingID           = fmt.Errorf("dangling id")
	ErrFreeListInconsistent = fmt.Errorf("free list inconsistent")
)

// PageOutOfBoundsError carries the link that failed a bounds check.
type PageOutOfBoundsError struct {
	Page  PageID
	Start uint32
	Len   uint16
}

func (e *PageOutOfBoundsError) Error() string {
	return fmt.Sprintf("page out of bounds: page=%d start=%d len=%d", e.Page, e.Start, e.Len)
}

func (e *PageOutOfBoundsError) Unwrap() error { return ErrPageOutOfBounds }

// NoSuchPageError carries the offending page index.
type NoSuchPageError struct {
	Index PageID
}

func (e *NoSuchPageError) Error() string {
	return fmt.Sprintf("no such page: %d", e.Index)
}

func (e *NoSuchPageError) Unwrap() error { return ErrNoSuchPage }

// DuplicateKeyError carries the offending key's string form.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Key)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// NotFoundError carries the key that could not be located.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TypeMismatchError carries the offending column and the expected/actual
// type tags.
type TypeMismatchError struct {
	Column   string
	Expected TypeTag
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on column %q: expected %s, got %s", e.Column, e.Expected, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// DescriptorMismatchError carries the expected vs. actual payload length.
type DescriptorMismatchError struct {
	ExpectedLen int
	GotLen      int
}

func (e *DescriptorMismatchError) Error() string {
	return fmt.Sprintf("descriptor mismatch: expected %d bytes, got %d", e.ExpectedLen, e.GotLen)
}

func (e *DescriptorMismatchError) Unwrap() error { return ErrDescriptorMismatch }

// InvalidTagError carries the unrecognised tag byte.
type InvalidTagError struct {
	Tag byte
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("invalid type tag: 0x%02x", e.Tag)
}

func (e *InvalidTagError) Unwrap() error { return ErrInvalidTag }

// TableError wraps any error surfaced by the table engine (C9) without
// losing its underlying kind, per spec.md §7 propagation rule.
type TableError struct {
	Op  string
	Err error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("table %s: %v", e.Op, e.Err)
}

func (e *TableError) Unwrap() error { return e.Err }
