package oceanbase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// vectorToString converts a float64 slice to an OceanBase VECTOR format string.
// Example: [0.1, 0.2, 0.3] -> "[0.1,0.2,0.3]"
func vectorToString(vector []float64) string {
	if len(vector) == 0 {
		return "[]"
	}

	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 32)
	}

	return "[" + strings.Join(parts, ",") + "]"
}

// stringToVector converts a string to a float64 slice.
// Example: "[0.1,0.2,0.3]" -> [0.1, 0.2, 0.3]
func stringToVector(s string) ([]float64, error) {
	// Remove leading and trailing square brackets
	s = strings.Trim(s, "[]")
	if s == "" {
		return []float64{}, nil
	}

	parts := strings.Split(s, ",")
	result := make([]float64, len(parts))

	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		result[i] = val
	}

	return result, nil
}

// buildWhereClause builds a WHERE clause from payload conditions.
func buildWhereClause(filter *storage.Filter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filter == nil {
		return "", args
	}

	for _, cond := range filter.Must {
		conditions = append(conditions, fmt.Sprintf("%s = ?", jsonField(cond.Key)))
		args = append(args, storage.ValueText(cond.Value))
	}

	for _, cond := range filter.MustNot {
		field := jsonField(cond.Key)
		conditions = append(conditions, fmt.Sprintf("(%s IS NULL OR %s <> ?)", field, field))
		args = append(args, storage.ValueText(cond.Value))
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func jsonField(key string) string {
	return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(payload, '$.%s'))", key)
}

func upsertQuery(table string, spaces []string) string {
	cols := []string{"id", "payload"}
	updates := []string{"payload = VALUES(payload)", "updated_at = CURRENT_TIMESTAMP"}
	for _, name := range spaces {
		col := columnName(name)
		cols = append(cols, col)
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		table, strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))
}

func inClause(ids []string) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func columnName(space string) string {
	return "vec_" + space
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
