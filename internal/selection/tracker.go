// Package selection tracks the live text selection in a document and
// derives the anchor point for the floating action toolbar.
package selection

import (
	"sync"

	"collabedit/internal/document"
	"collabedit/internal/logging"

	"go.uber.org/zap"
)

// toolbarGap is how far above the selection start the toolbar anchors,
// in surface units.
const toolbarGap = 60

// Span is a captured text selection: content offsets plus the exact
// substring between them at capture time. Spans are immutable once
// handed to a pending request; the document may keep changing.
type Span struct {
	Start int
	End   int
	Text  string
}

// Anchor is the on-screen point the toolbar is positioned at, relative
// to the document surface's top-left origin.
type Anchor struct {
	X int
	Y int
}

// Tracker observes a document's selection and owns toolbar visibility.
// Register it with the document via Attach.
type Tracker struct {
	doc document.Document
	log *zap.Logger

	mu      sync.Mutex
	active  *Span
	anchor  Anchor
	visible bool
}

// NewTracker creates a tracker over doc.
func NewTracker(doc document.Document, log *zap.Logger) *Tracker {
	return &Tracker{doc: doc, log: logging.OrNop(log)}
}

// Attach subscribes the tracker to the document's selection updates.
func (t *Tracker) Attach() {
	t.doc.OnSelectionChange(t.Update)
}

// Update recomputes the active span and anchor from a selection
// change. Empty and collapsed selections both clear the span and hide
// the toolbar.
func (t *Tracker) Update(start, end int, empty bool) {
	if empty || start == end {
		t.mu.Lock()
		t.active = nil
		t.visible = false
		t.mu.Unlock()
		return
	}

	text := t.doc.Text()
	if start < 0 || end > len(text) || start > end {
		t.log.Warn("selection offsets out of bounds",
			zap.Int("start", start), zap.Int("end", end), zap.Int("len", len(text)))
		return
	}

	startX, startY := t.doc.CoordsAt(start)
	endX, _ := t.doc.CoordsAt(end)

	t.mu.Lock()
	t.active = &Span{Start: start, End: end, Text: text[start:end]}
	t.anchor = Anchor{
		X: (startX + endX) / 2,
		Y: startY - toolbarGap,
	}
	t.visible = true
	t.mu.Unlock()
}

// Active returns the captured span, if any. The returned Span is a
// copy; callers may hold it across later document edits.
func (t *Tracker) Active() (Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return Span{}, false
	}
	return *t.active, true
}

// Anchor returns the toolbar anchor point. Only meaningful while
// ToolbarVisible is true.
func (t *Tracker) Anchor() Anchor {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.anchor
}

// ToolbarVisible reports whether the floating toolbar should show.
func (t *Tracker) ToolbarVisible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Hide hides the toolbar without clearing the captured span. The
// preview controller calls this after an action is chosen.
func (t *Tracker) Hide() {
	t.mu.Lock()
	t.visible = false
	t.mu.Unlock()
}
