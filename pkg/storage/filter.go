package storage

import (
	"fmt"
	"regexp"
)

// Condition matches a top-level payload field by equality.
type Condition struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// Filter restricts search candidates by payload fields. Every Must
// condition has to match and no MustNot condition may match. A point that
// lacks a MustNot key is kept.
type Filter struct {
	Must    []Condition `json:"must,omitempty"`
	MustNot []Condition `json:"must_not,omitempty"`
}

// MatchField returns a filter keeping points whose key equals value.
func MatchField(key string, value interface{}) *Filter {
	return &Filter{Must: []Condition{{Key: key, Value: value}}}
}

// ExcludeField returns a filter dropping points whose key equals value.
//
// Example:
//
//	filter := storage.ExcludeField("conversation_id", currentConversationID)
func ExcludeField(key string, value interface{}) *Filter {
	return &Filter{MustNot: []Condition{{Key: key, Value: value}}}
}

// IsEmpty reports whether the filter has no conditions.
func (f *Filter) IsEmpty() bool {
	return f == nil || (len(f.Must) == 0 && len(f.MustNot) == 0)
}

// Matches evaluates the filter against a payload. Values are compared by
// their formatted text, so 3 and 3.0 are equal.
func (f *Filter) Matches(payload map[string]interface{}) bool {
	if f.IsEmpty() {
		return true
	}
	for _, c := range f.Must {
		v, ok := payload[c.Key]
		if !ok || !sameValue(v, c.Value) {
			return false
		}
	}
	for _, c := range f.MustNot {
		if v, ok := payload[c.Key]; ok && sameValue(v, c.Value) {
			return false
		}
	}
	return true
}

// Validate checks that every key can be safely embedded in a JSON path.
func (f *Filter) Validate() error {
	if f == nil {
		return nil
	}
	for _, c := range append(append([]Condition{}, f.Must...), f.MustNot...) {
		if !ValidKey(c.Key) {
			return fmt.Errorf("invalid filter key %q", c.Key)
		}
	}
	return nil
}

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidKey reports whether key is a plain identifier.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// ValueText formats a condition value the way SQL JSON extraction renders it.
func ValueText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case float32:
		return fmt.Sprintf("%g", t)
	}
	return fmt.Sprint(v)
}

func sameValue(a, b interface{}) bool {
	return ValueText(a) == ValueText(b)
}
