// ABOUTME: Store interfaces and record types for cheatsignal persistence
// ABOUTME: Covers saved addresses, job/skill tags, hashtags and the conversation journal

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// CommunalAddress is a saved postal address
type CommunalAddress struct {
	ID           string    `json:"id"`
	AddressLine  string    `json:"address_line"`
	Locality     string    `json:"locality"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	LastModified time.Time `json:"last_modified"`
}

// ValidationError lists per-field problems with a record.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range sortedKeys(e.Fields) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "invalid record: " + strings.Join(parts, ", ")
}

// Validate checks that every address field is filled in.
func (a *CommunalAddress) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(a.AddressLine) == "" {
		fields["address_line"] = "Address is required"
	}
	if strings.TrimSpace(a.Locality) == "" {
		fields["locality"] = "City/Town is required"
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		fields["postal_code"] = "Postal code is required"
	}
	if strings.TrimSpace(a.Country) == "" {
		fields["country"] = "Country is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SkillType distinguishes jobs from skills
type SkillType string

const (
	SkillTypeJob   SkillType = "JOB"
	SkillTypeSkill SkillType = "SKILL"
)

// ParseSkillType accepts either case of JOB or SKILL.
func ParseSkillType(s string) (SkillType, error) {
	switch t := SkillType(strings.ToUpper(strings.TrimSpace(s))); t {
	case SkillTypeJob, SkillTypeSkill:
		return t, nil
	}
	return "", fmt.Errorf("unknown skill type %q", s)
}

// JobSkill is a job or skill tag
type JobSkill struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Type         SkillType `json:"type"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// Validate checks the title and type.
func (j *JobSkill) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(j.Title) == "" {
		fields["title"] = "Title is required"
	}
	if _, err := ParseSkillType(string(j.Type)); err != nil {
		fields["type"] = "Type must be JOB or SKILL"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Hashtag is a tag with usage statistics
type Hashtag struct {
	ID         string    `json:"id"`
	Tag        string    `json:"tag"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsed   time.Time `json:"last_used"`
}

// Validate checks the tag text.
func (h *Hashtag) Validate() error {
	if strings.TrimSpace(strings.TrimPrefix(h.Tag, "#")) == "" {
		return &ValidationError{Fields: map[string]string{"tag": "Tag is required"}}
	}
	return nil
}

// ConversationRecord is the journaled header of a conversation
type ConversationRecord struct {
	ID              string
	Name            string
	IsAI            bool
	LastMessage     string
	LastActivity    time.Time
	UnreadCount     int
	CurrentlyViewed bool
	Messages        []MessageRecord // populated by LoadConversations
}

// MessageRecord is one journaled message
type MessageRecord struct {
	ID             string
	ConversationID string
	Content        string
	Outgoing       bool
	Status         string
	CreatedAt      time.Time
}

// DirectoryStore holds the user's saved addresses, job/skill tags and hashtags
type DirectoryStore interface {
	// Addresses
	SaveAddress(ctx context.Context, addr *CommunalAddress) error
	ListAddresses(ctx context.Context) ([]*CommunalAddress, error)
	DeleteAddress(ctx context.Context, id string) error
	ClearAddresses(ctx context.Context) error

	// Jobs and skills
	SaveJobSkill(ctx context.Context, js *JobSkill) error
	ListJobSkills(ctx context.Context) ([]*JobSkill, error)
	ListJobSkillsByType(ctx context.Context, t SkillType) ([]*JobSkill, error)
	SearchJobSkills(ctx context.Context, query string) ([]*JobSkill, error)
	DeleteJobSkill(ctx context.Context, id string) error

	// Hashtags
	SaveHashtag(ctx context.Context, h *Hashtag) error
	TrendingHashtags(ctx context.Context) ([]*Hashtag, error)
	SearchHashtags(ctx context.Context, query string) ([]*Hashtag, error)
	DeleteHashtag(ctx context.Context, id string) error
	IncrementHashtagUsage(ctx context.Context, id string, at time.Time) error
}

// JournalStore persists conversation state across restarts
type JournalStore interface {
	SaveConversation(ctx context.Context, conv *ConversationRecord) error
	SaveMessage(ctx context.Context, msg *MessageRecord) error
	LoadConversations(ctx context.Context) ([]*ConversationRecord, error)
}

// Store is everything the SQLite backend provides
type Store interface {
	DirectoryStore
	JournalStore
	Close() error
}
