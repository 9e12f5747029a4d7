package selection

import (
	"testing"

	"collabedit/internal/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracked(t *testing.T, text string) (*document.Buffer, *Tracker) {
	t.Helper()
	buf := document.NewBuffer(text)
	tr := NewTracker(buf, nil)
	tr.Attach()
	return buf, tr
}

func TestTracker_NonEmptySelectionShowsToolbar(t *testing.T) {
	buf, tr := newTracked(t, "hello world")

	buf.SetSelection(6, 11)

	span, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, 6, span.Start)
	assert.Equal(t, 11, span.End)
	assert.Equal(t, "world", span.Text)
	assert.True(t, tr.ToolbarVisible())
}

func TestTracker_CollapsingSelectionHidesToolbar(t *testing.T) {
	buf, tr := newTracked(t, "hello world")

	buf.SetSelection(0, 5)
	require.True(t, tr.ToolbarVisible())

	buf.MoveCursor(3)
	assert.False(t, tr.ToolbarVisible())
	_, ok := tr.Active()
	assert.False(t, ok)
}

func TestTracker_AnchorGeometry(t *testing.T) {
	buf, tr := newTracked(t, "one\ntwo three")

	// Select "two" on line 1: offsets 4..7, columns 0..3.
	buf.SetSelection(4, 7)

	anchor := tr.Anchor()
	assert.Equal(t, 1, anchor.X, "horizontal midpoint of start and end carets")
	assert.Equal(t, 1-toolbarGap, anchor.Y, "fixed offset above the start caret")
}

func TestTracker_CapturedSpanSurvivesLaterEdits(t *testing.T) {
	buf, tr := newTracked(t, "hello world")

	buf.SetSelection(6, 11)
	span, ok := tr.Active()
	require.True(t, ok)

	// Editing elsewhere changes the document; the captured span keeps
	// the text from capture time.
	require.NoError(t, buf.Replace(0, 5, "goodbye"))
	assert.Equal(t, "world", span.Text)
	assert.Equal(t, 6, span.Start)
}

func TestTracker_HideKeepsSpan(t *testing.T) {
	buf, tr := newTracked(t, "hello world")

	buf.SetSelection(0, 5)
	tr.Hide()

	assert.False(t, tr.ToolbarVisible())
	span, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, "hello", span.Text)
}
