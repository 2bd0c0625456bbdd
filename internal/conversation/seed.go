// ABOUTME: Built-in starter conversations for a fresh install
// ABOUTME: One AI-backed assistant thread plus two human contacts

package conversation

import (
	"errors"
	"time"
)

// DefaultConversations returns the starter set with fixed IDs "1", "2", "3".
// Conversation "1" is AI-backed.
func DefaultConversations(now time.Time) []Conversation {
	greeting := func(id, content string) []Message {
		return []Message{{
			ID:             id + "-welcome",
			ConversationID: id,
			Content:        content,
			Status:         StatusSent,
			CreatedAt:      now,
		}}
	}
	return []Conversation{
		{
			ID:       "1",
			Name:     "Alice AI",
			IsAI:     true,
			Messages: greeting("1", "Hi! I'm Alice AI, your friendly AI assistant. How can I help you today? 😊"),
		},
		{
			ID:       "2",
			Name:     "Bob Johnson",
			Messages: greeting("2", "Hey, did you see the new movie?"),
		},
		{
			ID:       "3",
			Name:     "Carol Williams",
			Messages: greeting("3", "Are we still on for lunch tomorrow?"),
		},
	}
}

// Seed adds the starter conversations, skipping any whose ID already exists.
// Returns how many were added.
func (s *Store) Seed() (int, error) {
	added := 0
	for _, conv := range DefaultConversations(s.now()) {
		err := s.Add(conv)
		if errors.Is(err, ErrDuplicateConversation) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
