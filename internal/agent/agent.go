// Package agent drives the web search panel: it issues searches through
// the AI gateway, summarizes the results, and inserts crawled or
// summarized content into the document at the cursor.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"collabedit/internal/ai"
	"collabedit/internal/logging"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// crawlPlaceholder stands in for page content when no fetcher is wired
// or a fetch fails. Crawling is an external capability; the panel only
// assumes something can produce text for a URL.
const crawlPlaceholder = "This would contain the crawled content from the URL"

// prefetchLimit caps concurrent page fetches during a search.
const prefetchLimit = 3

// Gateway is the slice of the AI gateway the panel needs.
type Gateway interface {
	Complete(ctx context.Context, instruction, grounding string) (string, error)
	Search(ctx context.Context, query string) ([]ai.SearchResult, error)
}

// Inserter receives content at the document's current cursor. Inserts
// never target a captured range.
type Inserter interface {
	InsertAtCursor(text string)
}

// PageFetcher retrieves the textual content of a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type placeholderFetcher struct{}

func (placeholderFetcher) Fetch(context.Context, string) (string, error) {
	return crawlPlaceholder, nil
}

// PlaceholderFetcher returns a fetcher that produces a fixed stand-in
// string instead of real page content.
func PlaceholderFetcher() PageFetcher {
	return placeholderFetcher{}
}

// Panel holds the search state for the agent view: the last query, its
// results, and any page content prefetched for later crawls.
type Panel struct {
	gw      Gateway
	doc     Inserter
	fetcher PageFetcher
	log     *zap.Logger

	mu      sync.Mutex
	query   string
	results []ai.SearchResult
	pages   map[string]string
}

// NewPanel builds a panel over the given gateway and document. A nil
// fetcher falls back to the placeholder.
func NewPanel(gw Gateway, doc Inserter, fetcher PageFetcher, log *zap.Logger) *Panel {
	if fetcher == nil {
		fetcher = PlaceholderFetcher()
	}
	return &Panel{
		gw:      gw,
		doc:     doc,
		fetcher: fetcher,
		log:     logging.OrNop(log),
		pages:   make(map[string]string),
	}
}

// Search runs the query through the gateway, stores the results, then
// attaches an AI summary to the first result and prefetches page
// content in the background. A failed summary leaves the base results
// in place.
func (p *Panel) Search(ctx context.Context, query string) ([]ai.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	results, err := p.gw.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.query = query
	p.results = append([]ai.SearchResult(nil), results...)
	p.pages = make(map[string]string)
	p.mu.Unlock()

	if len(results) == 0 {
		return nil, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	g.Go(func() error {
		p.summarize(gctx, query, results)
		return nil
	})
	for _, r := range results {
		url := r.URL
		if url == "" || url == "#" {
			continue
		}
		g.Go(func() error {
			p.prefetch(gctx, url)
			return nil
		})
	}
	g.Wait()

	return p.Results(), nil
}

// summarize asks the gateway for a document-ready digest of the result
// set and attaches it to the first result.
func (p *Panel) summarize(ctx context.Context, query string, results []ai.SearchResult) {
	payload, err := json.Marshal(results)
	if err != nil {
		p.log.Warn("encoding search results for summary", zap.Error(err))
		return
	}
	prompt := fmt.Sprintf("Based on these search results about \"%s\", create a concise summary that can be inserted into a document:", query)
	summary, err := p.gw.Complete(ctx, prompt, string(payload))
	if err != nil {
		p.log.Warn("search summary failed", zap.String("query", query), zap.Error(err))
		return
	}

	p.mu.Lock()
	if len(p.results) > 0 && p.query == query {
		p.results[0].AISummary = summary
	}
	p.mu.Unlock()
}

func (p *Panel) prefetch(ctx context.Context, url string) {
	content, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.log.Debug("page prefetch failed", zap.String("url", url), zap.Error(err))
		return
	}
	p.mu.Lock()
	p.pages[url] = content
	p.mu.Unlock()
}

// Crawl summarizes the content behind a URL and inserts the summary at
// the cursor as a markdown section.
func (p *Panel) Crawl(ctx context.Context, url string) error {
	grounding := p.pageContent(ctx, url)
	instruction := fmt.Sprintf("Summarize the content from this URL for insertion into a document: %s", url)
	response, err := p.gw.Complete(ctx, instruction, grounding)
	if err != nil {
		return fmt.Errorf("crawling %s: %w", url, err)
	}
	p.doc.InsertAtCursor(fmt.Sprintf("\n\n### Content from %s\n\n%s\n\n", url, response))
	return nil
}

func (p *Panel) pageContent(ctx context.Context, url string) string {
	p.mu.Lock()
	content, ok := p.pages[url]
	p.mu.Unlock()
	if ok {
		return content
	}
	content, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		p.log.Debug("page fetch failed, using placeholder", zap.String("url", url), zap.Error(err))
		return crawlPlaceholder
	}
	return content
}

// InsertSummary places a summary in the document under a heading named
// after the query that produced it.
func (p *Panel) InsertSummary(summary string) {
	p.mu.Lock()
	query := p.query
	p.mu.Unlock()
	p.doc.InsertAtCursor(fmt.Sprintf("\n\n## %s\n\n%s\n\n", query, summary))
}

// Results returns a copy of the current result set.
func (p *Panel) Results() []ai.SearchResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.SearchResult(nil), p.results...)
}

// Query returns the query behind the current results.
func (p *Panel) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}
