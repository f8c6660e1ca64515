package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

func TestBuildWhereClauseWithOffset(t *testing.T) {
	clause, args := buildWhereClauseWithOffset(storage.ExcludeField("conversation_id", "c1"), 2)
	assert.Equal(t, "WHERE (payload->>'conversation_id' IS NULL OR payload->>'conversation_id' <> $2)", clause)
	assert.Equal(t, []interface{}{"c1"}, args)

	clause, args = buildWhereClauseWithOffset(&storage.Filter{
		Must: []storage.Condition{{Key: "role", Value: "user"}, {Key: "retrieval_count", Value: 3}},
	}, 1)
	assert.Equal(t, "WHERE payload->>'role' = $1 AND payload->>'retrieval_count' = $2", clause)
	assert.Equal(t, []interface{}{"user", "3"}, args)
}

func TestUpsertQuery(t *testing.T) {
	q := upsertQuery("memories", []string{"role", "semantic"})
	assert.Equal(t,
		"INSERT INTO memories (id, payload, vec_role, vec_semantic) VALUES ($1, $2::jsonb, $3::vector, $4::vector) "+
			"ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = CURRENT_TIMESTAMP, "+
			"vec_role = EXCLUDED.vec_role, vec_semantic = EXCLUDED.vec_semantic",
		q)
}

func TestVectorToString(t *testing.T) {
	assert.Equal(t, "[0.1,0.2,-3]", vectorToString([]float64{0.1, 0.2, -3}))
	assert.Equal(t, "ALL", limitOrAll(0))
	assert.Equal(t, "5", limitOrAll(5))
}
