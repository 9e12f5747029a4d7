package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Demo mode returns deterministic canned responses after a simulated
// delay so the whole pipeline works without a credential. The response
// kind is chosen by keyword-matching the instruction.
const (
	demoShorten  = "Here is a shortened version of your text."
	demoLengthen = "Here is an expanded version of your text with more details and context."
	demoGrammar  = "Here is your text with grammar corrections applied."
	demoTable    = "| Column 1 | Column 2 |\n|----------|----------|\n| Data 1   | Data 2   |"
	demoDefault  = "I can help you edit this text. What would you like me to do?"

	demoCompleteDelay = time.Second
	demoSearchDelay   = 1500 * time.Millisecond
)

// demoCompletion picks the canned response for an instruction.
func demoCompletion(instruction string) string {
	lower := strings.ToLower(instruction)
	switch {
	case strings.Contains(lower, "shorten"):
		return demoShorten
	case strings.Contains(lower, "lengthen"):
		return demoLengthen
	case strings.Contains(lower, "grammar"):
		return demoGrammar
	case strings.Contains(lower, "table"):
		return demoTable
	default:
		return demoDefault
	}
}

// demoSearchResults fabricates a single result for a query.
func demoSearchResults(query string) []SearchResult {
	return []SearchResult{
		{
			Title:   fmt.Sprintf("Search results for: %s", query),
			Snippet: "This is a mock search result. In production, this would be replaced with actual web search results from APIs like Tavily, Serper, or DuckDuckGo.",
			URL:     "https://example.com",
		},
	}
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
