package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/oceanbase/decaymem-go/pkg/intelligence"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

// InsertMode selects how memories are written. It is fixed at construction.
type InsertMode int

const (
	// ModeImmediate writes one memory per Store call and cleans up after each.
	ModeImmediate InsertMode = iota

	// ModeBuffered writes batches through StoreBulk and cleans up once per batch.
	ModeBuffered
)

// String returns the name of the mode.
func (m InsertMode) String() string {
	switch m {
	case ModeImmediate:
		return "immediate"
	case ModeBuffered:
		return "buffered"
	}
	return fmt.Sprintf("InsertMode(%d)", int(m))
}

// ParseInsertMode parses "immediate" or "buffered".
func ParseInsertMode(s string) (InsertMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "immediate":
		return ModeImmediate, nil
	case "buffered", "bulk":
		return ModeBuffered, nil
	}
	return 0, fmt.Errorf("unknown insert mode %q", s)
}

// Payload keys written for every memory.
const (
	PayloadContent         = "content"
	PayloadCreatedAt       = "created_at"
	PayloadLastAccessed    = "last_accessed"
	PayloadRetrievalCount  = "retrieval_count"
	PayloadEmotionalCharge = "emotional_charge"
	PayloadContextTags     = "context_tags"
	PayloadRole            = "role"
	PayloadConversationID  = "conversation_id"
)

// Memory represents a stored utterance and its access statistics.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID string `json:"id"`

	// Content is the stored text.
	Content string `json:"content"`

	// Role is the speaker of the utterance.
	Role vectors.Role `json:"role"`

	// ContextTags are the unique tags the memory was stored with.
	ContextTags []string `json:"context_tags,omitempty"`

	// EmotionalCharge is |sentiment| at creation, in [0,1].
	EmotionalCharge float64 `json:"emotional_charge"`

	// CreatedAt is when the memory was stored.
	CreatedAt time.Time `json:"created_at"`

	// LastAccessed is the last retrieval time, initially CreatedAt.
	LastAccessed time.Time `json:"last_accessed"`

	// RetrievalCount is how many retrievals returned this memory.
	RetrievalCount int `json:"retrieval_count"`

	// ConversationID identifies the conversation the memory came from.
	ConversationID string `json:"conversation_id,omitempty"`

	// Metadata holds caller-supplied payload fields.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (m *Memory) signals() intelligence.Signals {
	return intelligence.Signals{
		LastAccessed:    m.LastAccessed,
		RetrievalCount:  m.RetrievalCount,
		EmotionalCharge: m.EmotionalCharge,
	}
}

// Entry is one item of a StoreBulk batch.
type Entry struct {
	Content string
	Tags    []string

	// Role is the speaker. The zero value is vectors.RoleUser, as for Store.
	Role vectors.Role

	ConversationID string
	Metadata       map[string]interface{}

	// Timestamp is when the utterance occurred; it only shapes the temporal
	// vector. Zero means now.
	Timestamp time.Time

	// Distinctiveness in [0,1]. Zero means DefaultDistinctiveness.
	Distinctiveness float64
}

// Result is a retrieval hit.
type Result struct {
	ID string `json:"id"`

	// Score is the similarity reported by the vector index. Results are ranked by it.
	Score float64 `json:"score"`

	// Strength is the memory strength at retrieval time, computed before
	// this retrieval was counted.
	Strength float64 `json:"strength"`

	// Memory carries the access statistics as updated by this retrieval.
	Memory *Memory `json:"memory"`
}

// CleanupResult reports one cleanup pass.
type CleanupResult struct {
	Scanned    int      `json:"scanned"`
	Deleted    int      `json:"deleted"`
	Failed     int      `json:"failed"`
	DeletedIDs []string `json:"deleted_ids,omitempty"`
}

// Stats summarizes the stored memories.
type Stats struct {
	TotalMemories int                       `json:"total_memories"`
	AvgStrength   float64                   `json:"avg_strength"`
	MinStrength   float64                   `json:"min_strength"`
	MaxStrength   float64                   `json:"max_strength"`
	AvgAgeDays    float64                   `json:"avg_age_days"`
	WeakMemories  int                       `json:"weak_memories"`
	Tiers         map[intelligence.Tier]int `json:"tiers"`
}
