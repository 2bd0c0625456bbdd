// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu        sync.RWMutex
	addresses map[string]*CommunalAddress
	jobSkills map[string]*JobSkill
	hashtags  map[string]*Hashtag
	convs     map[string]*ConversationRecord // keyed by conversation ID, Messages unused
	convOrder []string
	messages  map[string][]MessageRecord // keyed by conversation ID

	// SaveErr, when set, is returned by every journal write.
	SaveErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		addresses: make(map[string]*CommunalAddress),
		jobSkills: make(map[string]*JobSkill),
		hashtags:  make(map[string]*Hashtag),
		convs:     make(map[string]*ConversationRecord),
		messages:  make(map[string][]MessageRecord),
	}
}

// SaveAddress validates and stores a copy of addr.
func (m *MockStore) SaveAddress(ctx context.Context, addr *CommunalAddress) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if addr.ID == "" {
		addr.ID = uuid.New().String()
	}
	addr.LastModified = time.Now()
	a := *addr
	m.addresses[a.ID] = &a
	return nil
}

// ListAddresses returns copies of every address, most recently modified first.
func (m *MockStore) ListAddresses(ctx context.Context) ([]*CommunalAddress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*CommunalAddress, 0, len(m.addresses))
	for _, a := range m.addresses {
		c := *a
		out = append(out, &c)
	}
	slices.SortStableFunc(out, func(a, b *CommunalAddress) int {
		return b.LastModified.Compare(a.LastModified)
	})
	return out, nil
}

// DeleteAddress removes an address.
func (m *MockStore) DeleteAddress(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.addresses[id]; !ok {
		return ErrNotFound
	}
	delete(m.addresses, id)
	return nil
}

// ClearAddresses removes every address.
func (m *MockStore) ClearAddresses(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.addresses)
	return nil
}

// SaveJobSkill validates and stores a copy of js.
func (m *MockStore) SaveJobSkill(ctx context.Context, js *JobSkill) error {
	if err := js.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	js.Type, _ = ParseSkillType(string(js.Type))
	if js.ID == "" {
		js.ID = uuid.New().String()
	}
	now := time.Now()
	if js.CreatedAt.IsZero() {
		js.CreatedAt = now
	}
	js.LastModified = now
	c := *js
	m.jobSkills[c.ID] = &c
	return nil
}

// ListJobSkills returns every job and skill, most recently modified first.
func (m *MockStore) ListJobSkills(ctx context.Context) ([]*JobSkill, error) {
	out := m.filterJobSkills(func(*JobSkill) bool { return true })
	slices.SortStableFunc(out, func(a, b *JobSkill) int {
		return b.LastModified.Compare(a.LastModified)
	})
	return out, nil
}

// ListJobSkillsByType returns jobs or skills ordered by title.
func (m *MockStore) ListJobSkillsByType(ctx context.Context, t SkillType) ([]*JobSkill, error) {
	out := m.filterJobSkills(func(js *JobSkill) bool { return js.Type == t })
	sortByTitle(out)
	return out, nil
}

// SearchJobSkills returns entries whose title contains query, case-insensitively.
func (m *MockStore) SearchJobSkills(ctx context.Context, query string) ([]*JobSkill, error) {
	q := strings.ToLower(query)
	out := m.filterJobSkills(func(js *JobSkill) bool {
		return strings.Contains(strings.ToLower(js.Title), q)
	})
	sortByTitle(out)
	return out, nil
}

// DeleteJobSkill removes a job/skill.
func (m *MockStore) DeleteJobSkill(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobSkills[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobSkills, id)
	return nil
}

func (m *MockStore) filterJobSkills(keep func(*JobSkill) bool) []*JobSkill {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*JobSkill
	for _, js := range m.jobSkills {
		if keep(js) {
			c := *js
			out = append(out, &c)
		}
	}
	return out
}

func sortByTitle(out []*JobSkill) {
	slices.SortStableFunc(out, func(a, b *JobSkill) int {
		return cmp.Compare(a.Title, b.Title)
	})
}

// SaveHashtag validates and stores a copy of h.
func (m *MockStore) SaveHashtag(ctx context.Context, h *Hashtag) error {
	if err := h.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	h.Tag = strings.TrimSpace(strings.TrimPrefix(h.Tag, "#"))
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	now := time.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = now
	}
	if h.LastUsed.IsZero() {
		h.LastUsed = now
	}
	c := *h
	m.hashtags[c.ID] = &c
	return nil
}

// TrendingHashtags returns hashtags by usage count, then recency.
func (m *MockStore) TrendingHashtags(ctx context.Context) ([]*Hashtag, error) {
	return m.SearchHashtags(ctx, "")
}

// SearchHashtags returns hashtags whose tag contains query, case-insensitively.
func (m *MockStore) SearchHashtags(ctx context.Context, query string) ([]*Hashtag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(strings.TrimPrefix(query, "#"))
	var out []*Hashtag
	for _, h := range m.hashtags {
		if strings.Contains(strings.ToLower(h.Tag), q) {
			c := *h
			out = append(out, &c)
		}
	}
	slices.SortStableFunc(out, func(a, b *Hashtag) int {
		if c := cmp.Compare(b.UsageCount, a.UsageCount); c != 0 {
			return c
		}
		return b.LastUsed.Compare(a.LastUsed)
	})
	return out, nil
}

// DeleteHashtag removes a hashtag.
func (m *MockStore) DeleteHashtag(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hashtags[id]; !ok {
		return ErrNotFound
	}
	delete(m.hashtags, id)
	return nil
}

// IncrementHashtagUsage bumps the usage count and last-used time.
func (m *MockStore) IncrementHashtagUsage(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashtags[id]
	if !ok {
		return ErrNotFound
	}
	h.UsageCount++
	h.LastUsed = at
	return nil
}

// SaveConversation upserts a conversation header.
func (m *MockStore) SaveConversation(ctx context.Context, conv *ConversationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}

	c := *conv
	c.Messages = nil
	if _, ok := m.convs[c.ID]; !ok {
		m.convOrder = append(m.convOrder, c.ID)
	}
	m.convs[c.ID] = &c
	return nil
}

// SaveMessage upserts a message, keeping the position of an existing one.
func (m *MockStore) SaveMessage(ctx context.Context, msg *MessageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}

	msgs := m.messages[msg.ConversationID]
	for i := range msgs {
		if msgs[i].ID == msg.ID {
			msgs[i].Content = msg.Content
			msgs[i].Status = msg.Status
			return nil
		}
	}
	m.messages[msg.ConversationID] = append(msgs, *msg)
	return nil
}

// LoadConversations returns conversations in first-save order with their
// messages attached.
func (m *MockStore) LoadConversations(ctx context.Context) ([]*ConversationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*ConversationRecord, 0, len(m.convOrder))
	for _, id := range m.convOrder {
		c := *m.convs[id]
		c.Messages = slices.Clone(m.messages[id])
		out = append(out, &c)
	}
	return out, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

var _ Store = (*MockStore)(nil)
var _ Store = (*SQLiteStore)(nil)
