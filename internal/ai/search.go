package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// SearchResult is one entry from the search backend. AISummary is
// attached later by the agent panel, after the base result exists.
type SearchResult struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	URL       string `json:"url"`
	AISummary string `json:"ai_summary,omitempty"`
}

// searchProvider is the minimal live search contract: substitute the
// query into a URL template, GET it, and decode {"results": [...]}.
// Any JSON search API shaped this way works; the template carries the
// provider's key if it needs one.
type searchProvider struct {
	urlTemplate string
	httpClient  *http.Client
	log         *zap.Logger
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

func (p *searchProvider) search(ctx context.Context, query string) ([]SearchResult, error) {
	searchURL := strings.ReplaceAll(p.urlTemplate, "{query}", url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("parse response: %w", err)}
	}

	p.log.Debug("search completed",
		zap.String("query", query),
		zap.Int("results", len(decoded.Results)))
	return decoded.Results, nil
}
