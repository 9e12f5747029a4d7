package transform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"collabedit/internal/document"
	"collabedit/internal/logging"
	"collabedit/internal/selection"

	"go.uber.org/zap"
)

// Completer is the slice of the AI gateway the preview controller
// needs.
type Completer interface {
	Complete(ctx context.Context, instruction, grounding string) (string, error)
}

// State is the preview controller's lifecycle position.
type State int

const (
	StateIdle State = iota
	StatePending
	StateStaged
)

// ErrBusy is returned when a transform is requested while another is
// already pending or staged.
var ErrBusy = errors.New("a transformation is already in progress")

// ErrEmptySelection is returned when a transform is requested without
// an active selection.
var ErrEmptySelection = errors.New("no text selected")

// PreviewState is a staged AI suggestion awaiting confirm or cancel.
// It is owned exclusively by the controller and destroyed on either
// outcome.
type PreviewState struct {
	Original   string
	Suggestion string
	Action     Action
	Source     selection.Span
}

// Controller runs the transform pipeline: capture the selection by
// value, call the gateway, stage the result, and apply or discard it
// on the user's decision.
//
// States: Idle -> Pending -> Staged -> Idle, with a failed request
// dropping straight back to Idle.
type Controller struct {
	completer Completer
	doc       document.Document
	log       *zap.Logger

	mu     sync.Mutex
	state  State
	staged *PreviewState
}

// NewController wires a controller to its gateway and document.
func NewController(completer Completer, doc document.Document, log *zap.Logger) *Controller {
	return &Controller{
		completer: completer,
		doc:       doc,
		log:       logging.OrNop(log),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Staged returns a copy of the staged preview, if any.
func (c *Controller) Staged() (PreviewState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staged == nil {
		return PreviewState{}, false
	}
	return *c.staged, true
}

// Request issues the transform for span under action. The span is
// captured by value: later edits or selection changes do not affect a
// request already in flight. Request blocks until the gateway answers;
// run it from the UI's async task runner.
//
// On success the controller moves to Staged. On failure no preview is
// created, no document change happens, and the controller returns to
// Idle with the error reported to the caller.
func (c *Controller) Request(ctx context.Context, action Action, span selection.Span) error {
	if span.Text == "" {
		return ErrEmptySelection
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = StatePending
	c.mu.Unlock()

	suggestion, err := c.completer.Complete(ctx, action.Template(), span.Text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateIdle
		c.log.Warn("transform request failed",
			zap.String("action", action.Label()), zap.Error(err))
		return err
	}

	c.staged = &PreviewState{
		Original:   span.Text,
		Suggestion: suggestion,
		Action:     action,
		Source:     span,
	}
	c.state = StateStaged
	return nil
}

// Confirm applies the staged suggestion to the document at the
// originally captured range, then discards the preview.
//
// Before replacing, the captured text is re-validated against the
// current content at the captured offsets. If the document changed
// shape underneath, Confirm refuses with document.ErrRangeStale
// instead of replacing whatever now sits there. The staged preview is
// discarded either way.
func (c *Controller) Confirm() error {
	c.mu.Lock()
	if c.staged == nil {
		c.mu.Unlock()
		return fmt.Errorf("nothing staged to confirm")
	}
	staged := *c.staged
	c.staged = nil
	c.state = StateIdle
	c.mu.Unlock()

	src := staged.Source
	text := c.doc.Text()
	if src.End > len(text) || text[src.Start:src.End] != src.Text {
		c.log.Warn("captured range no longer matches document",
			zap.Int("start", src.Start), zap.Int("end", src.End))
		return document.ErrRangeStale
	}

	if err := c.doc.Replace(src.Start, src.End, staged.Suggestion); err != nil {
		return fmt.Errorf("apply suggestion: %w", err)
	}
	return nil
}

// Cancel discards the staged preview without touching the document.
func (c *Controller) Cancel() {
	c.mu.Lock()
	c.staged = nil
	c.state = StateIdle
	c.mu.Unlock()
}
