package agent

import (
	"context"
	"strings"
	"sync"
	"testing"

	"collabedit/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGateway struct {
	mu            sync.Mutex
	completeCalls [][2]string
	searchCalls   []string
	completeReply string
	completeErr   error
	searchResults []ai.SearchResult
	searchErr     error
}

func (f *fakeGateway) Complete(_ context.Context, instruction, grounding string) (string, error) {
	f.mu.Lock()
	f.completeCalls = append(f.completeCalls, [2]string{instruction, grounding})
	f.mu.Unlock()
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completeReply, nil
}

func (f *fakeGateway) Search(_ context.Context, query string) ([]ai.SearchResult, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeGateway) calls() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.completeCalls...)
}

type recordingDoc struct {
	inserted []string
}

func (d *recordingDoc) InsertAtCursor(text string) {
	d.inserted = append(d.inserted, text)
}

type fixedFetcher struct {
	content string
	err     error
	calls   int
	mu      sync.Mutex
}

func (f *fixedFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.content, f.err
}

func TestPanelSearchAttachesSummaryToFirstResult(t *testing.T) {
	gw := &fakeGateway{
		completeReply: "A concise summary.",
		searchResults: []ai.SearchResult{
			{Title: "First", Snippet: "first snippet", URL: "https://one.example"},
			{Title: "Second", Snippet: "second snippet", URL: "https://two.example"},
		},
	}
	panel := NewPanel(gw, &recordingDoc{}, PlaceholderFetcher(), nil)

	results, err := panel.Search(context.Background(), "go generics")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A concise summary.", results[0].AISummary)
	assert.Empty(t, results[1].AISummary)

	calls := gw.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, `Based on these search results about "go generics", create a concise summary that can be inserted into a document:`, calls[0][0])
	assert.Contains(t, calls[0][1], "first snippet", "grounding carries the result set")
}

func TestPanelSearchSummaryFailureKeepsResults(t *testing.T) {
	gw := &fakeGateway{
		completeErr: ai.ErrRateLimited,
		searchResults: []ai.SearchResult{
			{Title: "Only", Snippet: "snippet", URL: "https://one.example"},
		},
	}
	panel := NewPanel(gw, &recordingDoc{}, PlaceholderFetcher(), nil)

	results, err := panel.Search(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].AISummary)
}

func TestPanelSearchPropagatesGatewayError(t *testing.T) {
	gw := &fakeGateway{searchErr: ai.ErrRateLimited}
	panel := NewPanel(gw, &recordingDoc{}, nil, nil)

	_, err := panel.Search(context.Background(), "anything")
	assert.ErrorIs(t, err, ai.ErrRateLimited)
}

func TestPanelSearchBlankQueryIgnored(t *testing.T) {
	gw := &fakeGateway{}
	panel := NewPanel(gw, &recordingDoc{}, nil, nil)

	results, err := panel.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Empty(t, gw.searchCalls)
}

func TestPanelCrawlInsertsSection(t *testing.T) {
	gw := &fakeGateway{completeReply: "Summarized page content."}
	doc := &recordingDoc{}
	panel := NewPanel(gw, doc, PlaceholderFetcher(), nil)

	err := panel.Crawl(context.Background(), "https://example.com/article")
	require.NoError(t, err)

	calls := gw.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Summarize the content from this URL for insertion into a document: https://example.com/article", calls[0][0])
	assert.Equal(t, "This would contain the crawled content from the URL", calls[0][1])

	require.Len(t, doc.inserted, 1)
	assert.Equal(t, "\n\n### Content from https://example.com/article\n\nSummarized page content.\n\n", doc.inserted[0])
}

func TestPanelCrawlUsesFetchedContent(t *testing.T) {
	gw := &fakeGateway{completeReply: "ok"}
	fetcher := &fixedFetcher{content: "real page text"}
	panel := NewPanel(gw, &recordingDoc{}, fetcher, nil)

	require.NoError(t, panel.Crawl(context.Background(), "https://example.com"))

	calls := gw.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "real page text", calls[0][1])
}

func TestPanelCrawlFetchFailureFallsBack(t *testing.T) {
	gw := &fakeGateway{completeReply: "ok"}
	fetcher := &fixedFetcher{err: context.DeadlineExceeded}
	panel := NewPanel(gw, &recordingDoc{}, fetcher, nil)

	require.NoError(t, panel.Crawl(context.Background(), "https://example.com"))

	calls := gw.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "This would contain the crawled content from the URL", calls[0][1])
}

func TestPanelCrawlErrorDoesNotInsert(t *testing.T) {
	gw := &fakeGateway{completeErr: ai.ErrRateLimited}
	doc := &recordingDoc{}
	panel := NewPanel(gw, doc, PlaceholderFetcher(), nil)

	err := panel.Crawl(context.Background(), "https://example.com")
	assert.ErrorIs(t, err, ai.ErrRateLimited)
	assert.Empty(t, doc.inserted)
}

func TestPanelInsertSummaryUsesQueryHeading(t *testing.T) {
	gw := &fakeGateway{
		completeReply: "summary body",
		searchResults: []ai.SearchResult{{Title: "t", Snippet: "s", URL: "https://one.example"}},
	}
	doc := &recordingDoc{}
	panel := NewPanel(gw, doc, PlaceholderFetcher(), nil)

	_, err := panel.Search(context.Background(), "rust vs go")
	require.NoError(t, err)

	panel.InsertSummary("summary body")
	require.Len(t, doc.inserted, 1)
	assert.True(t, strings.HasPrefix(doc.inserted[0], "\n\n## rust vs go\n\n"))
	assert.Contains(t, doc.inserted[0], "summary body")
}
