package core

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

var reservedPayloadKeys = map[string]bool{
	PayloadContent:         true,
	PayloadCreatedAt:       true,
	PayloadLastAccessed:    true,
	PayloadRetrievalCount:  true,
	PayloadEmotionalCharge: true,
	PayloadContextTags:     true,
	PayloadRole:            true,
	PayloadConversationID:  true,
}

// toPayload converts a Memory into the payload stored in the vector index.
// Metadata fields sit at the top level; reserved keys always win.
func toPayload(m *Memory) map[string]interface{} {
	payload := make(map[string]interface{}, len(m.Metadata)+len(reservedPayloadKeys))
	for k, v := range m.Metadata {
		payload[k] = v
	}

	tags := m.ContextTags
	if tags == nil {
		tags = []string{}
	}

	payload[PayloadContent] = m.Content
	payload[PayloadCreatedAt] = unixSeconds(m.CreatedAt)
	payload[PayloadLastAccessed] = unixSeconds(m.LastAccessed)
	payload[PayloadRetrievalCount] = m.RetrievalCount
	payload[PayloadEmotionalCharge] = m.EmotionalCharge
	payload[PayloadContextTags] = tags
	payload[PayloadRole] = m.Role.String()
	if m.ConversationID != "" {
		payload[PayloadConversationID] = m.ConversationID
	}
	return payload
}

// fromPayload rebuilds a Memory from a stored payload. Missing or malformed
// fields take zero values; a missing last_accessed falls back to created_at.
func fromPayload(id string, payload map[string]interface{}) *Memory {
	m := &Memory{
		ID:              id,
		Content:         asString(payload[PayloadContent]),
		Role:            vectors.ParseRole(asString(payload[PayloadRole])),
		ContextTags:     asStrings(payload[PayloadContextTags]),
		EmotionalCharge: asFloat(payload[PayloadEmotionalCharge]),
		CreatedAt:       asTime(payload[PayloadCreatedAt]),
		RetrievalCount:  int(asFloat(payload[PayloadRetrievalCount])),
		ConversationID:  asString(payload[PayloadConversationID]),
	}
	m.LastAccessed = asTime(payload[PayloadLastAccessed])
	if m.LastAccessed.IsZero() {
		m.LastAccessed = m.CreatedAt
	}
	if m.RetrievalCount < 0 {
		m.RetrievalCount = 0
	}

	for k, v := range payload {
		if reservedPayloadKeys[k] {
			continue
		}
		if m.Metadata == nil {
			m.Metadata = make(map[string]interface{})
		}
		m.Metadata[k] = v
	}
	return m
}

func fromScoredPoint(p *storage.ScoredPoint) *Memory {
	return fromPayload(p.ID, p.Payload)
}

// touched returns a copy of payload with the access statistics of one more retrieval at now.
func touched(payload map[string]interface{}, m *Memory, now time.Time) map[string]interface{} {
	out := storage.ClonePayload(payload)
	out[PayloadLastAccessed] = unixSeconds(now)
	out[PayloadRetrievalCount] = m.RetrievalCount + 1
	return out
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / 1e9
}

func asTime(v interface{}) time.Time {
	secs := asFloat(v)
	if secs <= 0 || math.IsInf(secs, 0) {
		return time.Time{}
	}
	whole, frac := math.Modf(secs)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0
		}
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStrings(v interface{}) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
