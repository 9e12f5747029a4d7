// Package document defines the surface the editing pipeline talks to.
// The real rich-text surface is an external collaborator; this package
// pins down the interface it must satisfy and ships an in-memory
// Buffer implementation used by the demo TUI and by tests.
package document

import "errors"

// ErrRangeStale is returned when a range replacement is refused
// because the document no longer holds the expected text at the
// captured offsets.
var ErrRangeStale = errors.New("document changed since the range was captured")

// ErrRangeInvalid is returned for out-of-bounds or inverted offsets.
var ErrRangeInvalid = errors.New("invalid document range")

// SelectionListener receives every selection change as content
// offsets. empty is true for a collapsed (caret-only) selection.
type SelectionListener func(start, end int, empty bool)

// Document is the contract the external editing surface must expose.
// Offsets are byte positions in the content model, not screen pixels.
type Document interface {
	// Text returns the full document content.
	Text() string

	// Replace substitutes the half-open range [start, end) with text.
	Replace(start, end int, text string) error

	// InsertAtCursor inserts text at the current cursor position.
	InsertAtCursor(text string)

	// CoordsAt maps a content offset to on-screen coordinates
	// relative to the surface's top-left origin.
	CoordsAt(offset int) (x, y int)

	// OnSelectionChange registers a listener for selection updates.
	OnSelectionChange(fn SelectionListener)
}
