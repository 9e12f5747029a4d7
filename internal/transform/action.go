// Package transform implements the selection-driven AI transformation
// pipeline: the fixed action set, the preview/confirm state machine,
// and the comparison metrics shown alongside a staged suggestion.
package transform

// Action is one of the five text transformations offered by the
// floating toolbar. The mapping to instruction templates is a fixed
// enumerated table, not runtime string matching, so it stays
// exhaustive under the compiler's eye.
type Action int

const (
	ActionShorten Action = iota
	ActionLengthen
	ActionFixGrammar
	ActionTabulate
	ActionImprove
)

// Actions returns the toolbar's actions in their fixed display order.
func Actions() []Action {
	return []Action{ActionShorten, ActionLengthen, ActionFixGrammar, ActionTabulate, ActionImprove}
}

// Template returns the instruction sent to the AI gateway for this
// action. The selection text is passed separately as grounding.
func (a Action) Template() string {
	switch a {
	case ActionShorten:
		return "Please shorten this text while keeping the main meaning:"
	case ActionLengthen:
		return "Please expand this text with more details and context:"
	case ActionFixGrammar:
		return "Please fix any grammar and spelling errors in this text:"
	case ActionTabulate:
		return "Convert this text into a well-formatted table:"
	default:
		return "Please improve the clarity and readability of this text:"
	}
}

// Label returns the short toolbar caption.
func (a Action) Label() string {
	switch a {
	case ActionShorten:
		return "Shorten"
	case ActionLengthen:
		return "Lengthen"
	case ActionFixGrammar:
		return "Grammar"
	case ActionTabulate:
		return "To Table"
	default:
		return "Improve"
	}
}

// String returns the heading used in the preview comparison.
func (a Action) String() string {
	switch a {
	case ActionShorten:
		return "Shortened Text"
	case ActionLengthen:
		return "Lengthened Text"
	case ActionFixGrammar:
		return "Grammar Corrected"
	case ActionTabulate:
		return "Table Format"
	default:
		return "Improved Text"
	}
}
