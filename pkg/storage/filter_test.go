package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

func TestFilter_Matches(t *testing.T) {
	payload := map[string]interface{}{
		"conversation_id": "c1",
		"retrieval_count": float64(3),
		"role":            "user",
	}

	tests := []struct {
		name   string
		filter *storage.Filter
		want   bool
	}{
		{"nil", nil, true},
		{"must match", storage.MatchField("role", "user"), true},
		{"must mismatch", storage.MatchField("role", "assistant"), false},
		{"must missing key", storage.MatchField("absent", "x"), false},
		{"must numeric", storage.MatchField("retrieval_count", 3), true},
		{"exclude match", storage.ExcludeField("conversation_id", "c1"), false},
		{"exclude other", storage.ExcludeField("conversation_id", "c2"), true},
		{"exclude missing key", storage.ExcludeField("absent", "c1"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(payload))
		})
	}
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, storage.ExcludeField("conversation_id", "c1").Validate())
	assert.Error(t, storage.MatchField("bad') OR 1=1 --", "x").Validate())
	assert.NoError(t, (*storage.Filter)(nil).Validate())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, storage.CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, storage.CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Equal(t, 0.0, storage.CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, storage.CosineSimilarity([]float64{1}, []float64{1, 1}))
}

func TestSortByScore(t *testing.T) {
	hits := []*storage.ScoredPoint{
		{ID: "b", Score: 0.5},
		{ID: "a", Score: 0.5},
		{ID: "c", Score: 0.9},
	}
	sorted := storage.SortByScore(hits, 2)
	assert.Len(t, sorted, 2)
	assert.Equal(t, "c", sorted[0].ID)
	assert.Equal(t, "a", sorted[1].ID)
}

func TestValidateSpaces(t *testing.T) {
	assert.Error(t, storage.ValidateSpaces(nil))
	assert.Error(t, storage.ValidateSpaces(map[string]storage.SpaceConfig{"semantic": {Dimension: 0}}))
	assert.Error(t, storage.ValidateSpaces(map[string]storage.SpaceConfig{"bad name": {Dimension: 3}}))
	assert.NoError(t, storage.ValidateSpaces(map[string]storage.SpaceConfig{"semantic": {Dimension: 3}}))
}
