// ABOUTME: Conversions between store journal records and in-memory conversations
// ABOUTME: Restore rebuilds the store from persisted records at startup

package conversation

import (
	"context"
	"fmt"

	"github.com/2389/cheatsignal/internal/store"
)

// Source loads previously journaled conversations.
type Source interface {
	LoadConversations(ctx context.Context) ([]*store.ConversationRecord, error)
}

// Restore loads every journaled conversation into the store without
// journaling them again. Returns how many were loaded.
func (s *Store) Restore(ctx context.Context, src Source) (int, error) {
	records, err := src.LoadConversations(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading conversations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for _, rec := range records {
		conv := fromRecord(rec)
		// Viewing is a per-session flag; nobody is looking at anything yet.
		conv.CurrentlyViewed = false
		if err := s.addLocked(conv); err != nil {
			s.logger.Warn("skipping journaled conversation", "conversation_id", rec.ID, "error", err)
			continue
		}
		loaded++
	}

	s.logger.Info("conversations restored", "count", loaded)
	return loaded, nil
}

func toRecord(c Conversation) *store.ConversationRecord {
	return &store.ConversationRecord{
		ID:              c.ID,
		Name:            c.Name,
		IsAI:            c.IsAI,
		LastMessage:     c.LastMessage,
		LastActivity:    c.LastActivity,
		UnreadCount:     c.UnreadCount,
		CurrentlyViewed: c.CurrentlyViewed,
	}
}

func toMessageRecord(m Message) *store.MessageRecord {
	return &store.MessageRecord{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Outgoing:       m.Outgoing,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}

func fromRecord(rec *store.ConversationRecord) Conversation {
	conv := Conversation{
		ID:              rec.ID,
		Name:            rec.Name,
		IsAI:            rec.IsAI,
		LastMessage:     rec.LastMessage,
		LastActivity:    rec.LastActivity,
		UnreadCount:     rec.UnreadCount,
		CurrentlyViewed: rec.CurrentlyViewed,
		Messages:        make([]Message, 0, len(rec.Messages)),
	}
	for _, m := range rec.Messages {
		status := MessageStatus(m.Status)
		if !status.Valid() {
			status = StatusSent
		}
		conv.Messages = append(conv.Messages, Message{
			ID:             m.ID,
			ConversationID: rec.ID,
			Content:        m.Content,
			Outgoing:       m.Outgoing,
			Status:         status,
			CreatedAt:      m.CreatedAt,
		})
	}
	return conv
}
