package sqlite

import (
	"encoding/json"
	"strings"

	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// buildWhereClause narrows rows by the string conditions of a filter.
// Non-string values are left to storage.Filter.Matches.
func buildWhereClause(filter *storage.Filter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}

	if filter == nil {
		return "", args
	}

	for _, cond := range filter.Must {
		if s, ok := cond.Value.(string); ok {
			conditions = append(conditions, "json_extract(payload, '$."+cond.Key+"') = ?")
			args = append(args, s)
		}
	}

	for _, cond := range filter.MustNot {
		if s, ok := cond.Value.(string); ok {
			path := "json_extract(payload, '$." + cond.Key + "')"
			conditions = append(conditions, "("+path+" IS NULL OR "+path+" <> ?)")
			args = append(args, s)
		}
	}

	if len(conditions) == 0 {
		return "", args
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

func inClause(ids []string) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func decodePayload(s string) (map[string]interface{}, error) {
	payload := map[string]interface{}{}
	if s == "" || s == "null" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
