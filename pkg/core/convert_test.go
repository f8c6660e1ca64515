package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/vectors"
)

func TestPayloadRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 500_000_000, time.UTC)
	m := &Memory{
		ID:              "42",
		Content:         "pick up the parcel",
		Role:            vectors.RoleAssistant,
		ContextTags:     []string{"errand"},
		EmotionalCharge: 0.25,
		CreatedAt:       created,
		LastAccessed:    created.Add(time.Hour),
		RetrievalCount:  3,
		ConversationID:  "conv-7",
		Metadata:        map[string]interface{}{"source": "sms", "content": "shadowed"},
	}

	payload := toPayload(m)
	assert.Equal(t, "pick up the parcel", payload[PayloadContent], "reserved keys win over metadata")

	// Stored payloads come back JSON-decoded from the SQL backends.
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	got := fromPayload("42", decoded)
	assert.Equal(t, m.Content, got.Content)
	assert.Equal(t, m.Role, got.Role)
	assert.Equal(t, m.ContextTags, got.ContextTags)
	assert.Equal(t, m.EmotionalCharge, got.EmotionalCharge)
	assert.WithinDuration(t, m.CreatedAt, got.CreatedAt, time.Microsecond)
	assert.WithinDuration(t, m.LastAccessed, got.LastAccessed, time.Microsecond)
	assert.Equal(t, 3, got.RetrievalCount)
	assert.Equal(t, "conv-7", got.ConversationID)
	assert.Equal(t, map[string]interface{}{"source": "sms"}, got.Metadata)
}

func TestFromPayloadDefaults(t *testing.T) {
	got := fromPayload("1", map[string]interface{}{
		PayloadContent:        "hello",
		PayloadCreatedAt:      float64(1700000000),
		PayloadRetrievalCount: -4,
		PayloadRole:           "moderator",
	})
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), got.LastAccessed)
	assert.Equal(t, 0, got.RetrievalCount)
	assert.Equal(t, vectors.RoleOther, got.Role)
	assert.Nil(t, got.Metadata)
	assert.Empty(t, got.ContextTags)
}

func TestToPayloadEmptyTags(t *testing.T) {
	payload := toPayload(&Memory{Content: "x"})
	assert.Equal(t, []string{}, payload[PayloadContextTags])
	_, ok := payload[PayloadConversationID]
	assert.False(t, ok)
}

func TestTouched(t *testing.T) {
	now := time.Unix(1700003600, 0)
	orig := map[string]interface{}{PayloadRetrievalCount: 2, PayloadContent: "c"}
	m := fromPayload("1", orig)

	out := touched(orig, m, now)
	assert.Equal(t, 3, out[PayloadRetrievalCount])
	assert.Equal(t, float64(1700003600), out[PayloadLastAccessed])
	assert.Equal(t, "c", out[PayloadContent])
	assert.Equal(t, 2, orig[PayloadRetrievalCount], "input payload is not modified")
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{float64(1.5), 1.5},
		{float32(2), 2},
		{7, 7},
		{int64(8), 8},
		{json.Number("3.25"), 3.25},
		{"4.5", 4.5},
		{nil, 0},
		{[]int{1}, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, asFloat(tt.in), "%v", tt.in)
	}
}
