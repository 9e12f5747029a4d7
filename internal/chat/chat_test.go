package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"collabedit/internal/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubGateway struct {
	completeCalls []string
	searchCalls   []string
	completeReply string
	completeErr   error
	searchResults []ai.SearchResult
	searchErr     error
}

func (s *stubGateway) Complete(_ context.Context, instruction, grounding string) (string, error) {
	s.completeCalls = append(s.completeCalls, instruction)
	if s.completeErr != nil {
		return "", s.completeErr
	}
	return s.completeReply, nil
}

func (s *stubGateway) Search(_ context.Context, query string) ([]ai.SearchResult, error) {
	s.searchCalls = append(s.searchCalls, query)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchResults, nil
}

func TestRouter_SeedsGreeting(t *testing.T) {
	r := NewRouter(&stubGateway{}, nil)

	msgs := r.Transcript().Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "AI assistant")
}

func TestRouter_GenericInputRoutesToComplete(t *testing.T) {
	gw := &stubGateway{completeReply: "Sure, here is a haiku."}
	r := NewRouter(gw, nil)

	r.Submit(context.Background(), "write me a haiku")

	require.Equal(t, []string{"write me a haiku"}, gw.completeCalls)
	assert.Empty(t, gw.searchCalls)

	msgs := r.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Equal(t, "write me a haiku", msgs[1].Content)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, "Sure, here is a haiku.", msgs[2].Content)
	assert.False(t, msgs[2].IsError)
}

func TestRouter_SearchKeywordsRouteToSearch(t *testing.T) {
	for _, input := range []string{
		"search for react news",
		"can you FIND the docs",
		"look up golang generics",
	} {
		t.Run(input, func(t *testing.T) {
			gw := &stubGateway{searchResults: []ai.SearchResult{
				{Title: "Result Title", Snippet: "Result snippet.", URL: "https://example.com"},
			}}
			r := NewRouter(gw, nil)

			r.Submit(context.Background(), input)

			require.Len(t, gw.searchCalls, 1)
			assert.Empty(t, gw.completeCalls)

			msgs := r.Transcript().Messages()
			reply := msgs[len(msgs)-1]
			assert.Contains(t, reply.Content, "I found some information for you:")
			assert.Contains(t, reply.Content, "Result Title")
			assert.Contains(t, reply.Content, "Result snippet.")
			assert.Contains(t, reply.Content, "insert this information into your document")
		})
	}
}

func TestRouter_FailureAppendsErrorMessage(t *testing.T) {
	gw := &stubGateway{completeErr: ai.ErrRateLimited}
	r := NewRouter(gw, nil)

	r.Submit(context.Background(), "hello there")

	msgs := r.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleUser, msgs[1].Role, "user message survives the failure")

	reply := msgs[2]
	assert.True(t, reply.IsError)
	assert.Equal(t, "Sorry, I encountered an error: Rate limit exceeded. Please wait a moment and try again.", reply.Content)
}

func TestRouter_TranscriptAppendOnlyOrdering(t *testing.T) {
	gw := &stubGateway{completeReply: "ok"}
	r := NewRouter(gw, nil)

	const n = 5
	for i := 0; i < n; i++ {
		r.Submit(context.Background(), fmt.Sprintf("message %d", i))
	}

	msgs := r.Transcript().Messages()
	require.Len(t, msgs, 1+2*n, "greeting plus user/assistant pair per submission")

	// Alternating roles after the greeting, timestamps non-decreasing.
	var last time.Time
	for i, msg := range msgs {
		if i > 0 {
			want := RoleUser
			if i%2 == 0 {
				want = RoleAssistant
			}
			assert.Equal(t, want, msg.Role, "message %d", i)
		}
		assert.False(t, msg.Timestamp.Before(last), "timestamp went backwards at %d", i)
		last = msg.Timestamp
	}
}

func TestRouter_BlankInputIgnored(t *testing.T) {
	gw := &stubGateway{}
	r := NewRouter(gw, nil)

	r.Submit(context.Background(), "   ")
	assert.Equal(t, 1, r.Transcript().Len())
	assert.Empty(t, gw.completeCalls)
}

func TestRouter_EmptySearchResults(t *testing.T) {
	gw := &stubGateway{searchResults: nil}
	r := NewRouter(gw, nil)

	r.Submit(context.Background(), "search for nothing")

	msgs := r.Transcript().Messages()
	reply := msgs[len(msgs)-1]
	assert.False(t, reply.IsError)
	assert.Contains(t, reply.Content, "couldn't find anything")
}
