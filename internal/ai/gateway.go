// Package ai provides the gateway between the editor and its two AI
// capabilities: text completion and web search. The gateway owns the
// credential, selects live or demo mode per call, tracks busy state,
// and converts every failure into a tagged error before it reaches a
// caller.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"collabedit/internal/logging"

	"go.uber.org/zap"
)

// CredentialStore persists the API credential across restarts. The
// settings package provides the SQLite-backed implementation.
type CredentialStore interface {
	Credential() (string, error)
	SetCredential(value string) error
}

// Config configures a Gateway. Zero values fall back to defaults; an
// empty Credential forces demo mode regardless of the DemoMode flag.
type Config struct {
	Credential        string
	DemoMode          bool
	BaseURL           string
	Model             string
	SearchURLTemplate string
	Timeout           time.Duration

	// DemoDelay overrides the simulated latency of demo responses.
	// Negative disables the delay entirely; zero keeps the defaults.
	// Tests set it to -1.
	DemoDelay time.Duration
}

// Gateway is the uniform entry point for completion and search.
// Construct one per process and inject it into every consumer; there
// is no package-level instance.
type Gateway struct {
	mu         sync.RWMutex
	credential string
	demoMode   bool

	busy       *BusyTracker
	gemini     *geminiClient
	search     *searchProvider
	store      CredentialStore
	delayScale time.Duration // negative disables demo delays
	log        *zap.Logger
}

// NewGateway builds a Gateway from cfg. store may be nil, in which
// case SetCredential only updates the in-memory value.
func NewGateway(cfg Config, store CredentialStore, log *zap.Logger) *Gateway {
	log = logging.OrNop(log)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	g := &Gateway{
		credential: cfg.Credential,
		demoMode:   cfg.DemoMode,
		busy:       NewBusyTracker(),
		store:      store,
		delayScale: cfg.DemoDelay,
		log:        log,
	}
	g.gemini = &geminiClient{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
	if cfg.SearchURLTemplate != "" {
		g.search = &searchProvider{
			urlTemplate: cfg.SearchURLTemplate,
			httpClient:  &http.Client{Timeout: timeout},
			log:         log,
		}
	}
	return g
}

// Busy reports whether any completion or search call is in flight.
func (g *Gateway) Busy() bool { return g.busy.Busy() }

// InFlight returns the number of outstanding calls.
func (g *Gateway) InFlight() int { return g.busy.InFlight() }

// Credential returns the current credential.
func (g *Gateway) Credential() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.credential
}

// SetCredential updates the credential and persists it when a store is
// configured.
func (g *Gateway) SetCredential(value string) error {
	g.mu.Lock()
	g.credential = value
	g.mu.Unlock()

	if g.store != nil {
		if err := g.store.SetCredential(value); err != nil {
			return fmt.Errorf("persist credential: %w", err)
		}
	}
	return nil
}

// SetDemoMode forces or releases demo mode at runtime. A missing
// credential still implies demo mode either way.
func (g *Gateway) SetDemoMode(on bool) {
	g.mu.Lock()
	g.demoMode = on
	g.mu.Unlock()
}

// DemoActive reports whether the next call would run in demo mode.
func (g *Gateway) DemoActive() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.demoMode || g.credential == ""
}

// BuildPrompt joins an instruction with its grounding text. The shape
// is fixed: grounding is quoted after a blank line, or omitted when
// empty.
func BuildPrompt(instruction, grounding string) string {
	if grounding == "" {
		return instruction
	}
	return fmt.Sprintf("%s\n\nText to work with: \"%s\"", instruction, grounding)
}

// Complete runs the instruction against the selected backend. The
// grounding text, when non-empty, is appended to the prompt verbatim.
// Busy state covers the full duration of the call.
func (g *Gateway) Complete(ctx context.Context, instruction, grounding string) (string, error) {
	done := g.busy.Begin()
	defer done()

	g.mu.RLock()
	demo := g.demoMode || g.credential == ""
	credential := g.credential
	g.mu.RUnlock()

	if demo {
		if err := sleep(ctx, g.demoDelayFor(demoCompleteDelay)); err != nil {
			return "", &TransportError{Err: err}
		}
		return demoCompletion(instruction), nil
	}

	client := *g.gemini
	client.apiKey = credential
	return client.complete(ctx, BuildPrompt(instruction, grounding))
}

// Search runs the query against the search backend, or returns the
// canned demo result when no live provider is configured.
func (g *Gateway) Search(ctx context.Context, query string) ([]SearchResult, error) {
	done := g.busy.Begin()
	defer done()

	g.mu.RLock()
	demo := g.demoMode || g.search == nil
	g.mu.RUnlock()

	if demo {
		if err := sleep(ctx, g.demoDelayFor(demoSearchDelay)); err != nil {
			return nil, &TransportError{Err: err}
		}
		return demoSearchResults(query), nil
	}

	return g.search.search(ctx, query)
}

func (g *Gateway) demoDelayFor(d time.Duration) time.Duration {
	switch {
	case g.delayScale < 0:
		return 0
	case g.delayScale > 0:
		return g.delayScale
	default:
		return d
	}
}
