// Package webfetch retrieves web page content for the agent panel. It
// drives a headless Chrome instance through rod so pages that render
// client-side still yield text.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"collabedit/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	// maxContentRunes bounds the text handed to prompts as grounding.
	maxContentRunes = 8000

	navigationTimeout = 30 * time.Second
)

// Fetcher launches Chrome on first use and keeps the browser alive
// across fetches. Close releases it.
type Fetcher struct {
	log *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewFetcher returns an unconnected fetcher. The browser is launched
// lazily on the first Fetch.
func NewFetcher(log *zap.Logger) *Fetcher {
	return &Fetcher{log: logging.OrNop(log)}
}

func (f *Fetcher) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		return f.browser, nil
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	f.browser = browser
	return browser, nil
}

// Fetch navigates to the URL, waits for the page to load, and returns
// its visible text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errors.New("empty url")
	}

	browser, err := f.ensureBrowser(ctx)
	if err != nil {
		return "", err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			f.log.Debug("closing page", zap.Error(closeErr))
		}
	}()

	page = page.Context(ctx).Timeout(navigationTimeout)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("waiting for %s: %w", url, err)
	}

	raw, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("reading page html: %w", err)
	}

	text, err := ExtractText(raw)
	if err != nil {
		return "", fmt.Errorf("parsing page html: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("no readable text at %s", url)
	}
	return text, nil
}

// Close shuts the browser down.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	return err
}

// ExtractText strips an HTML document down to its visible text, skipping
// script and style bodies and collapsing whitespace. The result is
// truncated to a prompt-sized bound.
func ExtractText(raw string) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			collapsed := strings.Join(strings.Fields(n.Data), " ")
			if collapsed != "" {
				sb.WriteString(collapsed)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	text := strings.TrimSpace(sb.String())
	runes := []rune(text)
	if len(runes) > maxContentRunes {
		text = string(runes[:maxContentRunes]) + "..."
	}
	return text, nil
}
