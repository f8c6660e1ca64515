package oceanbase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

func TestVectorStringRoundTrip(t *testing.T) {
	s := vectorToString([]float64{0.5, -1, 0.25})
	assert.Equal(t, "[0.5,-1,0.25]", s)

	v, err := stringToVector(s)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, -1, 0.25}, v)

	assert.Equal(t, "[]", vectorToString(nil))
}

func TestBuildWhereClause(t *testing.T) {
	clause, args := buildWhereClause(&storage.Filter{
		Must:    []storage.Condition{{Key: "role", Value: "user"}},
		MustNot: []storage.Condition{{Key: "conversation_id", Value: "c1"}},
	})
	assert.Equal(t,
		"WHERE JSON_UNQUOTE(JSON_EXTRACT(payload, '$.role')) = ? AND "+
			"(JSON_UNQUOTE(JSON_EXTRACT(payload, '$.conversation_id')) IS NULL OR JSON_UNQUOTE(JSON_EXTRACT(payload, '$.conversation_id')) <> ?)",
		clause)
	assert.Equal(t, []interface{}{"user", "c1"}, args)

	clause, args = buildWhereClause(nil)
	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestUpsertQuery(t *testing.T) {
	q := upsertQuery("memories", []string{"role", "semantic"})
	assert.Equal(t,
		"INSERT INTO memories (id, payload, vec_role, vec_semantic) VALUES (?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = CURRENT_TIMESTAMP, "+
			"vec_role = VALUES(vec_role), vec_semantic = VALUES(vec_semantic)",
		q)
}
