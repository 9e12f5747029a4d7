package transform

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stats are the derived metrics shown next to each side of the
// preview. They are recomputed on demand, never stored.
type Stats struct {
	Words int
	Chars int
}

// ComputeStats counts whitespace-delimited words and characters.
func ComputeStats(s string) Stats {
	return Stats{
		Words: len(strings.Fields(s)),
		Chars: utf8.RuneCountInString(s),
	}
}

// Comparison summarizes original against suggestion for the preview's
// changes panel.
type Comparison struct {
	Original   Stats
	Suggestion Stats
	WordDelta  int
	CharDelta  int
	Changed    bool
}

// Compare derives the comparison for a staged pair.
func Compare(original, suggestion string) Comparison {
	o := ComputeStats(original)
	s := ComputeStats(suggestion)
	return Comparison{
		Original:   o,
		Suggestion: s,
		WordDelta:  s.Words - o.Words,
		CharDelta:  s.Chars - o.Chars,
		Changed:    original != suggestion,
	}
}

// DiffSpans computes a semantic character-level diff between the two
// sides, for highlighted rendering in the preview.
func DiffSpans(original, suggestion string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, suggestion, false)
	return dmp.DiffCleanupSemantic(diffs)
}
