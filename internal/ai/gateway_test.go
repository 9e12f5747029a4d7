package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoGateway() *Gateway {
	return NewGateway(Config{DemoMode: true, DemoDelay: -1}, nil, nil)
}

func TestBuildPrompt(t *testing.T) {
	t.Run("with grounding", func(t *testing.T) {
		got := BuildPrompt("Shorten this:", "some text")
		assert.Equal(t, "Shorten this:\n\nText to work with: \"some text\"", got)
	})

	t.Run("without grounding", func(t *testing.T) {
		assert.Equal(t, "just an instruction", BuildPrompt("just an instruction", ""))
	})
}

func TestDemoCompletion_KeywordRouting(t *testing.T) {
	g := demoGateway()
	ctx := context.Background()

	tests := []struct {
		name        string
		instruction string
		want        string
	}{
		{"shorten", "Please shorten this text while keeping the main meaning:", demoShorten},
		{"lengthen", "Please lengthen it", demoLengthen},
		{"grammar", "Please fix any grammar and spelling errors in this text:", demoGrammar},
		{"table", "Convert this text into a well-formatted table:", demoTable},
		{"fallback", "Please improve the clarity and readability of this text:", demoDefault},
		{"case insensitive", "SHORTEN THIS", demoShorten},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Complete(ctx, tt.instruction, "whatever")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDemoSearch(t *testing.T) {
	g := demoGateway()

	results, err := g.Search(context.Background(), "golang generics")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Search results for: golang generics", results[0].Title)
	assert.Equal(t, "https://example.com", results[0].URL)
	assert.NotEmpty(t, results[0].Snippet)
}

func TestMissingCredentialForcesDemoMode(t *testing.T) {
	g := NewGateway(Config{DemoMode: false, DemoDelay: -1}, nil, nil)
	assert.True(t, g.DemoActive())

	got, err := g.Complete(context.Background(), "shorten", "x")
	require.NoError(t, err)
	assert.Equal(t, demoShorten, got)
}

func liveGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGateway(Config{
		Credential: "test-key",
		BaseURL:    srv.URL,
	}, nil, nil)
}

func TestLiveComplete_Success(t *testing.T) {
	var gotPath, gotKey string
	g := liveGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"rewritten"}]}}]}`))
	})

	got, err := g.Complete(context.Background(), "Improve:", "draft text")
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got)
	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestLiveComplete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"429 is RateLimited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrRateLimited)
		}},
		{"401 is InvalidCredential", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrInvalidCredential)
		}},
		{"403 is InvalidCredential", http.StatusForbidden, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrInvalidCredential)
			var credErr *CredentialError
			require.ErrorAs(t, err, &credErr)
			assert.Equal(t, http.StatusForbidden, credErr.Status)
		}},
		{"500 is BackendError", http.StatusInternalServerError, func(t *testing.T, err error) {
			var backendErr *BackendError
			require.ErrorAs(t, err, &backendErr)
			assert.Equal(t, http.StatusInternalServerError, backendErr.Status)
			assert.Equal(t, "boom", backendErr.Message)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := liveGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"boom"}}`))
			})
			_, err := g.Complete(context.Background(), "Improve:", "text")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestLiveComplete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	g := NewGateway(Config{Credential: "k", BaseURL: srv.URL}, nil, nil)
	_, err := g.Complete(context.Background(), "Improve:", "text")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestLiveComplete_MalformedBody(t *testing.T) {
	g := liveGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	_, err := g.Complete(context.Background(), "Improve:", "text")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestLiveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rust async", r.URL.Query().Get("q"))
		w.Write([]byte(`{"results":[{"title":"Async Rust","snippet":"intro","url":"https://example.org/a"}]}`))
	}))
	defer srv.Close()

	g := NewGateway(Config{
		Credential:        "k",
		SearchURLTemplate: srv.URL + "?q={query}",
	}, nil, nil)

	results, err := g.Search(context.Background(), "rust async")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Async Rust", results[0].Title)
	assert.Equal(t, "https://example.org/a", results[0].URL)
}

func TestBusyTracker_SingleCall(t *testing.T) {
	b := NewBusyTracker()
	assert.False(t, b.Busy())

	done := b.Begin()
	assert.True(t, b.Busy())
	assert.Equal(t, 1, b.InFlight())

	done()
	assert.False(t, b.Busy())

	// Idempotent.
	done()
	assert.Equal(t, 0, b.InFlight())
}

// Overlapping calls keep Busy true until the last one finishes. This is
// the reference-counted replacement for the single shared flag, chosen
// so a pair of back-to-back requests cannot flicker the indicator off
// while one is still pending.
func TestBusyTracker_OverlappingCalls(t *testing.T) {
	b := NewBusyTracker()

	first := b.Begin()
	second := b.Begin()
	assert.Equal(t, 2, b.InFlight())

	first()
	assert.True(t, b.Busy(), "still busy while the second request is pending")

	second()
	assert.False(t, b.Busy())
}

func TestGatewayBusy_DuringCall(t *testing.T) {
	release := make(chan struct{})
	observed := make(chan bool, 1)

	g := liveGateway(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := g.Complete(context.Background(), "Improve:", "text")
		assert.NoError(t, err)
	}()

	// Wait for the request to be in flight.
	for !g.Busy() {
		time.Sleep(time.Millisecond)
	}
	observed <- g.Busy()
	close(release)
	wg.Wait()

	assert.True(t, <-observed)
	assert.False(t, g.Busy(), "busy clears after the completion returns")
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", ErrRateLimited, "Rate limit exceeded. Please wait a moment and try again."},
		{"401", &CredentialError{Status: http.StatusUnauthorized}, "Invalid API key. Please check your Gemini API key."},
		{"403", &CredentialError{Status: http.StatusForbidden}, "Access denied. Please check your Gemini API key permissions."},
		{"backend", &BackendError{Status: 500, Message: "overloaded"}, "Gemini API error: 500 - overloaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Humanize(tt.err))
		})
	}
}

func TestSetCredential_Persists(t *testing.T) {
	store := &memoryCredentialStore{}
	g := NewGateway(Config{DemoDelay: -1}, store, nil)

	require.NoError(t, g.SetCredential("new-key"))
	assert.Equal(t, "new-key", g.Credential())
	assert.Equal(t, "new-key", store.value)
	assert.False(t, g.DemoActive())
}

type memoryCredentialStore struct {
	value string
}

func (m *memoryCredentialStore) Credential() (string, error)  { return m.value, nil }
func (m *memoryCredentialStore) SetCredential(v string) error { m.value = v; return nil }
