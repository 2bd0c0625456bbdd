// ABOUTME: SQLite journal of conversations and their messages
// ABOUTME: Lets the in-memory conversation store survive a restart

package store

import (
	"context"
	"fmt"
	"time"
)

// SaveConversation upserts a conversation header. created_at is set on first
// insert only.
func (s *SQLiteStore) SaveConversation(ctx context.Context, conv *ConversationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, name, is_ai, last_message, last_activity, unread_count, currently_viewed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_ai = excluded.is_ai,
			last_message = excluded.last_message,
			last_activity = excluded.last_activity,
			unread_count = excluded.unread_count,
			currently_viewed = excluded.currently_viewed
	`,
		conv.ID,
		conv.Name,
		boolToInt(conv.IsAI),
		conv.LastMessage,
		toMillis(conv.LastActivity),
		conv.UnreadCount,
		boolToInt(conv.CurrentlyViewed),
		toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}
	return nil
}

// SaveMessage upserts a message. A new message is placed after every
// message already journaled for its conversation; an existing one keeps its
// position.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *MessageRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, seq, content, outgoing, status, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?), ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			status = excluded.status
	`,
		msg.ID,
		msg.ConversationID,
		msg.ConversationID,
		msg.Content,
		boolToInt(msg.Outgoing),
		msg.Status,
		toMillis(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	return nil
}

// LoadConversations returns every journaled conversation in creation order
// with its messages in append order.
func (s *SQLiteStore) LoadConversations(ctx context.Context) ([]*ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_ai, last_message, last_activity, unread_count, currently_viewed
		FROM conversations
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}

	var convs []*ConversationRecord
	byID := make(map[string]*ConversationRecord)
	for rows.Next() {
		var c ConversationRecord
		var isAI, viewed int
		var activity int64
		if err := rows.Scan(&c.ID, &c.Name, &isAI, &c.LastMessage, &activity, &c.UnreadCount, &viewed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		c.IsAI = isAI != 0
		c.CurrentlyViewed = viewed != 0
		c.LastActivity = fromMillis(activity)
		convs = append(convs, &c)
		byID[c.ID] = &c
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	msgRows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, content, outgoing, status, created_at
		FROM messages
		ORDER BY conversation_id, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var m MessageRecord
		var outgoing int
		var created int64
		if err := msgRows.Scan(&m.ID, &m.ConversationID, &m.Content, &outgoing, &m.Status, &created); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Outgoing = outgoing != 0
		m.CreatedAt = fromMillis(created)
		if conv, ok := byID[m.ConversationID]; ok {
			conv.Messages = append(conv.Messages, m)
		}
	}
	return convs, msgRows.Err()
}
