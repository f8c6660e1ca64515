package postgres

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// buildWhereClauseWithOffset builds a WHERE clause starting from a specific parameter index.
func buildWhereClauseWithOffset(filter *storage.Filter, startIndex int) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := startIndex

	if filter == nil {
		return "", args
	}

	for _, cond := range filter.Must {
		conditions = append(conditions, fmt.Sprintf("payload->>'%s' = $%d", cond.Key, argIndex))
		args = append(args, storage.ValueText(cond.Value))
		argIndex++
	}

	for _, cond := range filter.MustNot {
		conditions = append(conditions, fmt.Sprintf("(payload->>'%s' IS NULL OR payload->>'%s' <> $%d)", cond.Key, cond.Key, argIndex))
		args = append(args, storage.ValueText(cond.Value))
		argIndex++
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func upsertQuery(table string, spaces []string) string {
	cols := []string{"id", "payload"}
	values := []string{"$1", "$2::jsonb"}
	updates := []string{"payload = EXCLUDED.payload", "updated_at = CURRENT_TIMESTAMP"}
	for i, name := range spaces {
		col := columnName(name)
		cols = append(cols, col)
		values = append(values, fmt.Sprintf("$%d::vector", i+3))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		table, strings.Join(cols, ", "), strings.Join(values, ", "), strings.Join(updates, ", "))
}

func inClause(ids []string, startIndex int) (string, []interface{}) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", startIndex+i)
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func columnName(space string) string {
	return "vec_" + space
}

func limitOrAll(limit int) string {
	if limit <= 0 {
		return "ALL"
	}
	return strconv.Itoa(limit)
}

// vectorToString converts a vector to the pgvector text format.
func vectorToString(vec []float64) string {
	strs := make([]string, len(vec))
	for i, v := range vec {
		strs[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(strs, ",") + "]"
}

func decodePayload(raw []byte) (map[string]interface{}, error) {
	payload := map[string]interface{}{}
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
