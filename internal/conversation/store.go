// ABOUTME: Observable in-memory conversation store with a single serialized writer
// ABOUTME: Readers load immutable snapshots; watchers get conflated updates

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/2389/cheatsignal/internal/broadcast"
	"github.com/2389/cheatsignal/internal/store"
)

// ErrDuplicateConversation is returned when adding a conversation whose ID
// is already present.
var ErrDuplicateConversation = errors.New("conversation already exists")

// listKey is the broadcaster key for whole-list updates.
const listKey = "*"

// DefaultPreviewLength is the rune limit for LastMessage previews.
const DefaultPreviewLength = 120

// UnreadPolicy decides how an append changes a conversation's unread count.
type UnreadPolicy int

const (
	// UnreadInbound increments on inbound messages while the conversation is
	// not viewed and resets to zero when the user sends.
	UnreadInbound UnreadPolicy = iota
	// UnreadResetOnAppend resets the count to zero on every append.
	UnreadResetOnAppend
)

// ParseUnreadPolicy maps a config value to a policy. Empty means UnreadInbound.
func ParseUnreadPolicy(s string) (UnreadPolicy, error) {
	switch s {
	case "", "inbound":
		return UnreadInbound, nil
	case "reset_on_append":
		return UnreadResetOnAppend, nil
	}
	return 0, fmt.Errorf("unknown unread policy %q", s)
}

func (p UnreadPolicy) String() string {
	if p == UnreadResetOnAppend {
		return "reset_on_append"
	}
	return "inbound"
}

// next returns the unread count after msg is appended to conv.
func (p UnreadPolicy) next(conv Conversation, msg Message) int {
	switch {
	case p == UnreadResetOnAppend, msg.Outgoing:
		return 0
	case conv.CurrentlyViewed:
		return conv.UnreadCount
	default:
		return conv.UnreadCount + 1
	}
}

// Journal receives every committed change. Implementations persist it.
type Journal interface {
	SaveConversation(ctx context.Context, conv *store.ConversationRecord) error
	SaveMessage(ctx context.Context, msg *store.MessageRecord) error
}

// Options configures a Store. The zero value is usable.
type Options struct {
	Policy        UnreadPolicy
	Journal       Journal
	PreviewLength int
	Logger        *slog.Logger
	Now           func() time.Time
}

// Store owns the conversation collection. All mutations take the writer
// lock and publish a new snapshot; reads never lock.
//
// Journal writes happen under the writer lock, so the journal sees changes
// in commit order and a message row never precedes its conversation row.
// A slow journal therefore delays every mutation by up to its 5s timeout;
// reads and watchers are never delayed.
type Store struct {
	mu      sync.Mutex
	state   atomic.Pointer[snapshot]
	listHub *broadcast.Broadcaster[[]Conversation]
	convHub *broadcast.Broadcaster[*Conversation]

	policy     UnreadPolicy
	journal    Journal
	previewLen int
	now        func() time.Time
	logger     *slog.Logger
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	previewLen := opts.PreviewLength
	if previewLen <= 0 {
		previewLen = DefaultPreviewLength
	}

	s := &Store{
		listHub:    broadcast.New[[]Conversation](logger),
		convHub:    broadcast.New[*Conversation](logger),
		policy:     opts.Policy,
		journal:    opts.Journal,
		previewLen: previewLen,
		now:        now,
		logger:     logger.With("component", "conversations"),
	}
	s.state.Store(&snapshot{index: map[string]int{}})
	return s
}

// Policy returns the unread policy in effect.
func (s *Store) Policy() UnreadPolicy {
	return s.policy
}

// List returns a copy of every conversation in insertion order.
func (s *Store) List() []Conversation {
	return s.state.Load().list()
}

// Get returns a copy of one conversation.
func (s *Store) Get(id string) (Conversation, bool) {
	c, ok := s.state.Load().get(id)
	if !ok {
		return Conversation{}, false
	}
	return c.Clone(), true
}

// WatchList streams the full list, starting with the current state. The
// channel closes when ctx is done. Received slices must be treated as
// read-only.
func (s *Store) WatchList(ctx context.Context) <-chan []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, _ := s.listHub.Subscribe(ctx, listKey, s.state.Load().list())
	return ch
}

// Watch streams one conversation, starting with the current state. A nil
// value means the ID is unknown; if a conversation with that ID is added
// later it is delivered on the same channel.
func (s *Store) Watch(ctx context.Context, id string) <-chan *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var initial *Conversation
	if c, ok := s.state.Load().get(id); ok {
		cc := c.Clone()
		initial = &cc
	}
	ch, _ := s.convHub.Subscribe(ctx, id, initial)
	return ch
}

// Add inserts a new conversation.
func (s *Store) Add(conv Conversation) error {
	if conv.ID == "" {
		return errors.New("conversation id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.addLocked(conv); err != nil {
		return err
	}
	added, _ := s.state.Load().get(conv.ID)
	s.recordConversation(added)
	for i := range added.Messages {
		s.recordMessage(added.Messages[i])
	}
	return nil
}

// addLocked inserts without journaling. Must be called with mu held.
func (s *Store) addLocked(conv Conversation) error {
	cur := s.state.Load()
	if _, exists := cur.index[conv.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateConversation, conv.ID)
	}

	conv = conv.Clone()
	for i := range conv.Messages {
		conv.Messages[i] = s.normalize(conv.ID, conv.Messages[i])
	}
	if last, ok := conv.LastMessageEntry(); ok {
		if conv.LastMessage == "" {
			conv.LastMessage = PreviewText(last.Content, s.previewLen)
		}
		if conv.LastActivity.IsZero() {
			conv.LastActivity = last.CreatedAt
		}
	}
	if conv.LastActivity.IsZero() {
		conv.LastActivity = s.now()
	}
	conv.UnreadCount = max(conv.UnreadCount, 0)
	if conv.CurrentlyViewed {
		conv.UnreadCount = 0
	}

	s.commit(cur.add(conv), conv)
	s.logger.Debug("conversation added", "conversation_id", conv.ID, "is_ai", conv.IsAI)
	return nil
}

// AppendMessage appends msg to the conversation's log, refreshes the preview
// and activity timestamp, and applies the unread policy. Unknown IDs are a
// no-op and return false.
func (s *Store) AppendMessage(id string, msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	idx, ok := cur.index[id]
	if !ok {
		s.logger.Debug("append to unknown conversation ignored", "conversation_id", id)
		return false
	}

	conv := cur.convs[idx]
	msg = s.normalize(id, msg)

	msgs := make([]Message, len(conv.Messages), len(conv.Messages)+1)
	copy(msgs, conv.Messages)
	conv.Messages = append(msgs, msg)
	conv.LastMessage = PreviewText(msg.Content, s.previewLen)
	conv.LastActivity = msg.CreatedAt
	conv.UnreadCount = s.policy.next(conv, msg)

	s.commit(cur.replace(idx, conv), conv)
	s.recordConversation(conv)
	s.recordMessage(msg)

	s.logger.Debug("message appended",
		"conversation_id", id,
		"message_id", msg.ID,
		"outgoing", msg.Outgoing,
		"unread", conv.UnreadCount)
	return true
}

// SetViewed marks whether the user is looking at the conversation. Viewing
// clears the unread count; leaving keeps it. Unknown IDs return false.
func (s *Store) SetViewed(id string, viewed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	idx, ok := cur.index[id]
	if !ok {
		return false
	}

	conv := cur.convs[idx]
	conv.CurrentlyViewed = viewed
	if viewed {
		conv.UnreadCount = 0
	}

	s.commit(cur.replace(idx, conv), conv)
	s.recordConversation(conv)
	return true
}

// SetMessageStatus moves one message to a new delivery status. Returns
// false if the conversation or message is unknown or status is invalid.
func (s *Store) SetMessageStatus(convID, msgID string, status MessageStatus) bool {
	if !status.Valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	idx, ok := cur.index[convID]
	if !ok {
		return false
	}

	conv := cur.convs[idx]
	pos := slices.IndexFunc(conv.Messages, func(m Message) bool { return m.ID == msgID })
	if pos < 0 {
		return false
	}

	conv.Messages = slices.Clone(conv.Messages)
	conv.Messages[pos].Status = status

	s.commit(cur.replace(idx, conv), conv)
	s.recordMessage(conv.Messages[pos])
	return true
}

// Close ends every watch stream.
func (s *Store) Close() {
	s.listHub.Close()
	s.convHub.Close()
}

// normalize fills defaults a caller may leave empty.
func (s *Store) normalize(convID string, msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.ConversationID = convID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	if msg.Status == "" {
		msg.Status = StatusSent
	}
	return msg
}

// commit publishes next. Must be called with mu held.
func (s *Store) commit(next *snapshot, changed Conversation) {
	s.state.Store(next)

	c := changed.Clone()
	s.convHub.Publish(c.ID, &c)
	s.listHub.Publish(listKey, next.list())
}

// recordConversation writes the conversation header to the journal with a
// separate timeout so persistence does not depend on any request context.
func (s *Store) recordConversation(conv Conversation) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.journal.SaveConversation(ctx, toRecord(conv)); err != nil {
		s.logger.Error("failed to journal conversation", "error", err, "conversation_id", conv.ID)
	}
}

func (s *Store) recordMessage(msg Message) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.journal.SaveMessage(ctx, toMessageRecord(msg)); err != nil {
		s.logger.Error("failed to journal message",
			"error", err,
			"conversation_id", msg.ConversationID,
			"message_id", msg.ID)
	}
}

// snapshot is an immutable view of the collection. Mutations copy.
type snapshot struct {
	convs []Conversation
	index map[string]int
}

func (sn *snapshot) get(id string) (Conversation, bool) {
	i, ok := sn.index[id]
	if !ok {
		return Conversation{}, false
	}
	return sn.convs[i], true
}

func (sn *snapshot) list() []Conversation {
	out := make([]Conversation, len(sn.convs))
	for i, c := range sn.convs {
		out[i] = c.Clone()
	}
	return out
}

func (sn *snapshot) replace(i int, c Conversation) *snapshot {
	convs := slices.Clone(sn.convs)
	convs[i] = c
	return &snapshot{convs: convs, index: sn.index}
}

func (sn *snapshot) add(c Conversation) *snapshot {
	convs := append(slices.Clone(sn.convs), c)
	index := maps.Clone(sn.index)
	index[c.ID] = len(convs) - 1
	return &snapshot{convs: convs, index: index}
}
