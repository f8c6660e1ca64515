package storage

import (
	"fmt"
	"math"
	"sort"
)

// CosineSimilarity returns the cosine similarity of a and b. Vectors of
// different length or zero norm have similarity 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SortByScore orders hits by descending score (ties by id) and truncates to limit.
func SortByScore(hits []*ScoredPoint, limit int) []*ScoredPoint {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		return hits[:limit]
	}
	return hits
}

// ValidateSpaces checks space names and dimensions before a backend uses them.
func ValidateSpaces(spaces map[string]SpaceConfig) error {
	if len(spaces) == 0 {
		return fmt.Errorf("no vector spaces configured")
	}
	for name, sc := range spaces {
		if !ValidKey(name) {
			return fmt.Errorf("invalid space name %q", name)
		}
		if sc.Dimension <= 0 {
			return fmt.Errorf("space %q: dimension must be positive", name)
		}
		if sc.Distance != "" && sc.Distance != DistanceCosine {
			return fmt.Errorf("space %q: unsupported distance %q", name, sc.Distance)
		}
	}
	return nil
}

// CheckPoint verifies that a point has a vector of the right length for every space.
func CheckPoint(p *Point, spaces map[string]SpaceConfig) error {
	if p.ID == "" {
		return fmt.Errorf("point without id")
	}
	for name, sc := range spaces {
		v, ok := p.Vectors[name]
		if !ok {
			return fmt.Errorf("point %s: missing %s vector", p.ID, name)
		}
		if len(v) != sc.Dimension {
			return fmt.Errorf("point %s: %s vector has %d values, expected %d", p.ID, name, len(v), sc.Dimension)
		}
	}
	return nil
}

// SortedSpaceNames returns the space names in a stable order.
func SortedSpaceNames(spaces map[string]SpaceConfig) []string {
	names := make([]string, 0, len(spaces))
	for name := range spaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClonePayload returns a shallow copy of payload.
func ClonePayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
