// Package chat implements the conversational assistant: an append-only
// transcript plus a router that classifies free-text input and calls
// the right gateway capability.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"collabedit/internal/ai"
	"collabedit/internal/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Role identifies a transcript message's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry. IsError marks assistant messages
// that report a failed request.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
	IsError   bool
}

const greeting = "Hello! I'm your AI assistant. I can help you edit text, search the web, and improve your writing. How can I help you today?"

// Transcript is an append-only ordered message sequence. Display order
// equals append order; nothing is ever reordered or deleted.
type Transcript struct {
	mu   sync.Mutex
	msgs []Message
}

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(msg Message) {
	t.mu.Lock()
	t.msgs = append(t.msgs, msg)
	t.mu.Unlock()
}

// Messages returns a copy of the transcript in append order.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}

// Gateway is the slice of the AI gateway the router uses.
type Gateway interface {
	Complete(ctx context.Context, instruction, grounding string) (string, error)
	Search(ctx context.Context, query string) ([]ai.SearchResult, error)
}

// Router classifies user input and appends the exchange to the
// transcript. Each Submit is independent; rapid submissions may
// interleave at the gateway.
type Router struct {
	gw         Gateway
	transcript *Transcript
	log        *zap.Logger
	now        func() time.Time
}

// NewRouter creates a router with a transcript seeded with the
// assistant greeting.
func NewRouter(gw Gateway, log *zap.Logger) *Router {
	r := &Router{
		gw:         gw,
		transcript: &Transcript{},
		log:        logging.OrNop(log),
		now:        time.Now,
	}
	r.transcript.Append(Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   greeting,
		Timestamp: r.now(),
	})
	return r
}

// Transcript exposes the router's transcript.
func (r *Router) Transcript() *Transcript {
	return r.transcript
}

// isSearchQuery reports whether the input asks for a web search.
func isSearchQuery(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "search") ||
		strings.Contains(lower, "find") ||
		strings.Contains(lower, "look up")
}

// Submit routes userText and appends both sides of the exchange. The
// user message is appended immediately, before any network call; a
// failed request appends an error-marked assistant message and never
// removes the user's. Submit blocks until the exchange resolves.
func (r *Router) Submit(ctx context.Context, userText string) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return
	}

	r.transcript.Append(Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   userText,
		Timestamp: r.now(),
	})

	var reply string
	var err error
	if isSearchQuery(userText) {
		reply, err = r.submitSearch(ctx, userText)
	} else {
		reply, err = r.gw.Complete(ctx, userText, "")
	}

	msg := Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Timestamp: r.now(),
	}
	if err != nil {
		r.log.Warn("chat request failed", zap.Error(err))
		msg.Content = fmt.Sprintf("Sorry, I encountered an error: %s", ai.Humanize(err))
		msg.IsError = true
	} else {
		msg.Content = reply
	}
	r.transcript.Append(msg)
}

// submitSearch runs the search route and synthesizes an offer from the
// first result. No AI summarization happens here; that is the agent
// panel's job.
func (r *Router) submitSearch(ctx context.Context, query string) (string, error) {
	results, err := r.gw.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "I couldn't find anything for that. Try rephrasing your search.", nil
	}
	first := results[0]
	return fmt.Sprintf(
		"I found some information for you:\n\n%s\n%s\n\nWould you like me to insert this information into your document?",
		first.Title, first.Snippet), nil
}
