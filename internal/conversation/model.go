// ABOUTME: Conversation and Message value types held by the conversation store
// ABOUTME: Snapshots are immutable; mutations always produce new values

package conversation

import (
	"cmp"
	"slices"
	"time"
)

// MessageStatus is the delivery state of a message.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSending, StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// Message is a single entry in a conversation log. It refers to its
// conversation by ID only.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	Content        string        `json:"content"`
	Outgoing       bool          `json:"outgoing"`
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Conversation is a named thread with an ordered message log.
type Conversation struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	IsAI            bool      `json:"is_ai"`
	Messages        []Message `json:"messages"`
	LastMessage     string    `json:"last_message"`
	LastActivity    time.Time `json:"last_activity"`
	UnreadCount     int       `json:"unread_count"`
	CurrentlyViewed bool      `json:"currently_viewed"`
}

// Clone returns a copy that shares no backing arrays with c.
func (c Conversation) Clone() Conversation {
	c.Messages = slices.Clone(c.Messages)
	return c
}

// LastMessageEntry returns the most recent message, if any.
func (c Conversation) LastMessageEntry() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// SortByActivity orders conversations most recent first. Ties keep their
// relative order.
func SortByActivity(convs []Conversation) {
	slices.SortStableFunc(convs, func(a, b Conversation) int {
		return cmp.Compare(b.LastActivity.UnixNano(), a.LastActivity.UnixNano())
	})
}
