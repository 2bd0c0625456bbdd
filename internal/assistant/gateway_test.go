// ABOUTME: Tests for the AI response gateway using a fake completion client
// ABOUTME: Covers request shape, every fallback path, timeouts and prompt loading

package assistant

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeCompleter implements Completer for testing
type fakeCompleter struct {
	mu       sync.Mutex
	resp     *llms.ContentResponse
	err      error
	block    bool
	calls    int
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeCompleter) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	f.calls++
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func textResponse(s string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s}}}
}

func TestGateway_ReplySendsPromptAndMessage(t *testing.T) {
	fake := &fakeCompleter{resp: textResponse("  Hi there!  ")}
	g := NewWithCompleter(Config{SystemPrompt: "Be brief.", MaxTokens: 64}, fake, nil)

	got := g.Reply(t.Context(), "hello")

	assert.Equal(t, "Hi there!", got)
	require.Len(t, fake.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, llms.TextContent{Text: "Be brief."}, fake.messages[0].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "hello"}, fake.messages[1].Parts[0])
	assert.Equal(t, DefaultModel, fake.opts.Model)
	assert.Equal(t, 64, fake.opts.MaxTokens)
}

func TestGateway_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeCompleter
		wantKind FailureKind
		wantText string
	}{
		{
			name:     "no choices",
			fake:     &fakeCompleter{resp: &llms.ContentResponse{}},
			wantKind: FailureEmptyReply,
			wantText: FallbackEmptyReply,
		},
		{
			name:     "blank content",
			fake:     &fakeCompleter{resp: textResponse(" \n ")},
			wantKind: FailureEmptyReply,
			wantText: FallbackEmptyReply,
		},
		{
			name:     "nil response",
			fake:     &fakeCompleter{},
			wantKind: FailureEmptyReply,
			wantText: FallbackEmptyReply,
		},
		{
			name:     "service error",
			fake:     &fakeCompleter{err: errors.New("API returned unexpected status code: 500")},
			wantKind: FailureService,
			wantText: FallbackService,
		},
		{
			name:     "network error",
			fake:     &fakeCompleter{err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
			wantKind: FailureTransport,
			wantText: FallbackTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithCompleter(Config{}, tt.fake, nil)

			_, err := g.Complete(t.Context(), "hello")
			var gerr *Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.wantKind, gerr.Kind)

			assert.Equal(t, tt.wantText, g.Reply(t.Context(), "hello"))
		})
	}
}

func TestGateway_Timeout(t *testing.T) {
	fake := &fakeCompleter{block: true}
	g := NewWithCompleter(Config{Timeout: 20 * time.Millisecond}, fake, nil)

	start := time.Now()
	_, err := g.Complete(t.Context(), "hello")

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, FailureTransport, gerr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGateway_RateLimitWaitHonoursContext(t *testing.T) {
	fake := &fakeCompleter{resp: textResponse("ok")}
	g := NewWithCompleter(Config{RequestsPerMinute: 1}, fake, nil)

	// The first call spends the single token.
	assert.Equal(t, "ok", g.Reply(t.Context(), "one"))

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, FallbackTransport, g.Reply(ctx, "two"))
	assert.Equal(t, 1, fake.calls, "second call never reached the client")
}

func TestGateway_NoCredentialNeverCallsOut(t *testing.T) {
	g, err := New(Config{APIKey: "   "}, nil)
	require.NoError(t, err)
	assert.False(t, g.Available())

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("any message gets the unavailable text", prop.ForAll(
		func(msg string) bool {
			return g.Reply(context.Background(), msg) == FallbackUnavailable
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)

	_, err = g.Complete(t.Context(), "hello")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestNew_WithKeyBuildsClient(t *testing.T) {
	g, err := New(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1"}, nil)
	require.NoError(t, err)
	assert.True(t, g.Available())
	assert.Equal(t, DefaultModel, g.Model())
}

func TestFallback_UnknownKindIsTransport(t *testing.T) {
	assert.Equal(t, FallbackTransport, Fallback(FailureKind(99)))
	assert.Equal(t, "FailureKind(99)", FailureKind(99).String())
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()

	custom := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(custom, []byte("\nYou are a pirate.\n"), 0o644))
	assert.Equal(t, "You are a pirate.", LoadPrompt(custom, nil))

	blank := filepath.Join(dir, "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0o644))
	assert.Equal(t, DefaultSystemPrompt, LoadPrompt(blank, nil))

	assert.Equal(t, DefaultSystemPrompt, LoadPrompt(filepath.Join(dir, "missing.txt"), nil))

	bundled := LoadPrompt("", nil)
	assert.Contains(t, bundled, "Alice AI")
}
