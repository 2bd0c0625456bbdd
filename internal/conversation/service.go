// ABOUTME: Send pipeline: append the user's message, then fetch and append an AI reply
// ABOUTME: The reply round trip runs with no store lock held

package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyMessage is returned when the message text is blank.
var ErrEmptyMessage = errors.New("message content is empty")

// Responder produces the reply for an AI-backed conversation. Implementations
// never fail; they degrade to a user-presentable fallback string.
type Responder interface {
	Reply(ctx context.Context, text string) string
}

// Service runs the user-send flow on top of a Store.
type Service struct {
	store     *Store
	responder Responder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a Service. responder may be nil, in which case AI-backed
// conversations receive no reply.
func NewService(store *Store, responder Responder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		responder: responder,
		logger:    logger.With("component", "conversation-service"),
		now:       time.Now,
	}
}

// Store returns the underlying conversation store.
func (s *Service) Store() *Store {
	return s.store
}

// SendResult reports what SendUserMessage appended. Outgoing is nil when the
// conversation is unknown; Reply is nil for conversations that are not
// AI-backed.
type SendResult struct {
	Outgoing *Message `json:"outgoing,omitempty"`
	Reply    *Message `json:"reply,omitempty"`
}

// SendUserMessage appends text as an outgoing message. For AI-backed
// conversations it then asks the responder and appends the answer as an
// incoming message in a second, independent mutation.
//
// An unknown conversation ID is not an error: the result is empty. If ctx
// is cancelled while waiting for the reply, the reply is discarded and
// ctx.Err() is returned alongside the outgoing message.
func (s *Service) SendUserMessage(ctx context.Context, conversationID, text string) (*SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	conv, ok := s.store.Get(conversationID)
	if !ok {
		s.logger.Debug("send to unknown conversation ignored", "conversation_id", conversationID)
		return &SendResult{}, nil
	}

	outgoing := Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Content:        text,
		Outgoing:       true,
		Status:         StatusSent,
		CreatedAt:      s.now(),
	}
	if !s.store.AppendMessage(conversationID, outgoing) {
		return &SendResult{}, nil
	}
	result := &SendResult{Outgoing: &outgoing}

	if !conv.IsAI || s.responder == nil {
		return result, nil
	}

	replyText := s.responder.Reply(ctx, text)
	if err := ctx.Err(); err != nil {
		s.logger.Warn("send cancelled before reply landed",
			"conversation_id", conversationID,
			"error", err)
		return result, err
	}

	reply := Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Content:        replyText,
		Outgoing:       false,
		Status:         StatusSent,
		CreatedAt:      s.now(),
	}
	s.store.AppendMessage(conversationID, reply)
	result.Reply = &reply

	s.logger.Debug("ai reply appended",
		"conversation_id", conversationID,
		"message_id", reply.ID)
	return result, nil
}
