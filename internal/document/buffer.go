package document

import (
	"strings"
	"sync"
)

// Buffer is a plain-text Document backed by a string. Selection state
// is a pair of byte offsets: Anchor is where the selection started,
// Cursor is where it currently extends to. A collapsed selection
// (Anchor == Cursor) is just a caret.
type Buffer struct {
	mu        sync.Mutex
	text      string
	anchor    int
	cursor    int
	listeners []SelectionListener
}

// NewBuffer returns a Buffer seeded with text; the cursor starts at
// offset zero.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

// Text returns the buffer content.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// SetText replaces the whole content and collapses the selection to
// the start.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	b.text = text
	b.anchor, b.cursor = 0, 0
	b.mu.Unlock()
	b.notify()
}

// Len returns the content length in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.text)
}

// Cursor returns the current cursor offset.
func (b *Buffer) Cursor() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// Selection returns the selection bounds in ascending order and
// whether the selection is collapsed.
func (b *Buffer) Selection() (start, end int, empty bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orderedLocked()
}

func (b *Buffer) orderedLocked() (start, end int, empty bool) {
	start, end = b.anchor, b.cursor
	if start > end {
		start, end = end, start
	}
	return start, end, start == end
}

// SetSelection sets the selection explicitly and notifies listeners.
// Offsets are clamped to the content bounds.
func (b *Buffer) SetSelection(anchor, cursor int) {
	b.mu.Lock()
	b.anchor = clamp(anchor, len(b.text))
	b.cursor = clamp(cursor, len(b.text))
	b.mu.Unlock()
	b.notify()
}

// MoveCursor places the caret at offset, collapsing any selection.
func (b *Buffer) MoveCursor(offset int) {
	b.SetSelection(offset, offset)
}

// ExtendSelection moves the cursor end of the selection, keeping the
// anchor in place.
func (b *Buffer) ExtendSelection(cursor int) {
	b.mu.Lock()
	b.cursor = clamp(cursor, len(b.text))
	b.mu.Unlock()
	b.notify()
}

// SelectedText returns the substring covered by the selection.
func (b *Buffer) SelectedText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, end, empty := b.orderedLocked()
	if empty {
		return ""
	}
	return b.text[start:end]
}

// Replace substitutes [start, end) with text. The cursor lands at the
// end of the inserted text and the selection collapses.
func (b *Buffer) Replace(start, end int, text string) error {
	b.mu.Lock()
	if start < 0 || end > len(b.text) || start > end {
		b.mu.Unlock()
		return ErrRangeInvalid
	}
	b.text = b.text[:start] + text + b.text[end:]
	b.anchor = start + len(text)
	b.cursor = b.anchor
	b.mu.Unlock()
	b.notify()
	return nil
}

// InsertAtCursor inserts text at the caret. An active selection is not
// replaced; insertion happens at the cursor end.
func (b *Buffer) InsertAtCursor(text string) {
	b.mu.Lock()
	at := clamp(b.cursor, len(b.text))
	b.text = b.text[:at] + text + b.text[at:]
	b.anchor = at + len(text)
	b.cursor = b.anchor
	b.mu.Unlock()
	b.notify()
}

// CoordsAt maps an offset to (column, line) in the text grid. Columns
// and lines are zero-based; the TUI treats one cell as one unit.
func (b *Buffer) CoordsAt(offset int) (x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	offset = clamp(offset, len(b.text))
	before := b.text[:offset]
	y = strings.Count(before, "\n")
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		x = offset - i - 1
	} else {
		x = offset
	}
	return x, y
}

// OnSelectionChange registers a listener. Listeners run synchronously
// on the goroutine that mutated the selection.
func (b *Buffer) OnSelectionChange(fn SelectionListener) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

func (b *Buffer) notify() {
	b.mu.Lock()
	start, end, empty := b.orderedLocked()
	listeners := make([]SelectionListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(start, end, empty)
	}
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
