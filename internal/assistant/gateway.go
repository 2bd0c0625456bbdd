// ABOUTME: AI response gateway: one user message in, one assistant reply out
// ABOUTME: Wraps a langchaingo OpenAI client with a timeout and an outbound rate limit

package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

const (
	DefaultModel   = "gpt-4"
	DefaultTimeout = 30 * time.Second
)

// Completer is the part of an llms.Model the gateway needs.
type Completer interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Config holds gateway settings.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	SystemPrompt      string
	Timeout           time.Duration
	MaxTokens         int
	RequestsPerMinute int // 0 means unlimited
}

// Gateway turns a user message into an assistant reply. It keeps no
// conversation history; every call sends only the system prompt and the
// latest message.
type Gateway struct {
	client  Completer
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New builds a gateway backed by the OpenAI provider. Without an API key the
// gateway is still usable but every reply is FallbackUnavailable and no
// network call is made.
func New(cfg Config, logger *slog.Logger) (*Gateway, error) {
	cfg = withDefaults(cfg)

	var client Completer
	if strings.TrimSpace(cfg.APIKey) != "" {
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.APIKey),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating OpenAI client: %w", err)
		}
		client = llm
	}

	g := NewWithCompleter(cfg, client, logger)
	if client == nil {
		g.logger.Warn("no API key configured, AI replies disabled")
	}
	return g, nil
}

// NewWithCompleter builds a gateway around an existing client. A nil client
// behaves like a missing API key.
func NewWithCompleter(cfg Config, client Completer, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = withDefaults(cfg)

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Gateway{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With("component", "assistant"),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return cfg
}

// Available reports whether the gateway has a client to call.
func (g *Gateway) Available() bool {
	return g.client != nil
}

// Model returns the configured model name.
func (g *Gateway) Model() string {
	return g.cfg.Model
}

// Complete performs one round trip. Failures are returned as *Error.
func (g *Gateway) Complete(ctx context.Context, text string) (string, error) {
	if g.client == nil {
		return "", &Error{Kind: FailureUnavailable, Err: ErrNoCredential}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", &Error{Kind: FailureTransport, Err: fmt.Errorf("waiting for rate limit: %w", err)}
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, g.cfg.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}
	opts := []llms.CallOption{llms.WithModel(g.cfg.Model)}
	if g.cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.cfg.MaxTokens))
	}

	start := time.Now()
	resp, err := g.client.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", &Error{Kind: classify(err), Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &Error{Kind: FailureEmptyReply, Err: ErrEmptyReply}
	}
	reply := strings.TrimSpace(resp.Choices[0].Content)
	if reply == "" {
		return "", &Error{Kind: FailureEmptyReply, Err: ErrEmptyReply}
	}

	g.logger.Debug("completion received",
		"model", g.cfg.Model,
		"duration", time.Since(start),
		"reply_len", len(reply))
	return reply, nil
}

// Reply returns the assistant's answer, or the fallback text for whatever
// went wrong. It never fails.
func (g *Gateway) Reply(ctx context.Context, text string) string {
	reply, err := g.Complete(ctx, text)
	if err == nil {
		return reply
	}

	kind := FailureTransport
	var gerr *Error
	if errors.As(err, &gerr) {
		kind = gerr.Kind
	}
	if kind == FailureUnavailable {
		g.logger.Debug("AI reply skipped", "reason", err)
	} else {
		g.logger.Error("error during API call", "kind", kind.String(), "error", err)
	}
	return Fallback(kind)
}
