// Package vectors generates the four named embeddings that describe one memory.
//
// A memory is indexed in four vector spaces:
//   - semantic: meaning of the text, produced by an embedding model
//   - temporal: cyclical encoding of when the text was produced
//   - contextual: tag membership plus affect and distinctiveness features
//   - role: a single scalar separating user and assistant utterances
//
// All four are produced together by Generator.Generate.
package vectors

import (
	"errors"
	"fmt"
)

// Space names one of the vector spaces a memory is indexed in.
type Space string

const (
	// SpaceSemantic is the text embedding space.
	SpaceSemantic Space = "semantic"

	// SpaceTemporal is the cyclical time encoding space.
	SpaceTemporal Space = "temporal"

	// SpaceContextual is the tag and affect space.
	SpaceContextual Space = "contextual"

	// SpaceRole is the one-dimensional speaker role space.
	SpaceRole Space = "role"
)

// AllSpaces lists every space in the default query priority order.
var AllSpaces = []Space{SpaceSemantic, SpaceTemporal, SpaceContextual, SpaceRole}

// ParseSpace converts a space name to a Space.
func ParseSpace(name string) (Space, error) {
	for _, s := range AllSpaces {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown vector space %q", name)
}

// ErrDimensionMismatch indicates that a vector does not have the configured length.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Dimensions holds the configured length of each vector space.
type Dimensions struct {
	Semantic   int `json:"semantic" yaml:"semantic"`
	Temporal   int `json:"temporal" yaml:"temporal"`
	Contextual int `json:"contextual" yaml:"contextual"`
	Role       int `json:"role" yaml:"role"`
}

// DefaultDimensions returns the dimensions used by the all-MiniLM-L6-v2 setup.
func DefaultDimensions() Dimensions {
	return Dimensions{
		Semantic:   384,
		Temporal:   20,
		Contextual: 100,
		Role:       1,
	}
}

// Of returns the configured length for a space, or 0 for an unknown space.
func (d Dimensions) Of(space Space) int {
	switch space {
	case SpaceSemantic:
		return d.Semantic
	case SpaceTemporal:
		return d.Temporal
	case SpaceContextual:
		return d.Contextual
	case SpaceRole:
		return d.Role
	}
	return 0
}

// Validate checks that every dimension is usable.
func (d Dimensions) Validate() error {
	for _, s := range AllSpaces {
		if d.Of(s) <= 0 {
			return fmt.Errorf("%s dimension must be positive, got %d", s, d.Of(s))
		}
	}
	if d.Contextual < reservedContextSlots+1 {
		return fmt.Errorf("contextual dimension must be at least %d, got %d", reservedContextSlots+1, d.Contextual)
	}
	if d.Role != 1 {
		return fmt.Errorf("role dimension must be 1, got %d", d.Role)
	}
	return nil
}

// Bundle is the set of four embeddings describing one memory.
type Bundle struct {
	Semantic   []float64
	Temporal   []float64
	Contextual []float64
	Role       []float64
}

// Get returns the vector for the given space.
func (b Bundle) Get(space Space) []float64 {
	switch space {
	case SpaceSemantic:
		return b.Semantic
	case SpaceTemporal:
		return b.Temporal
	case SpaceContextual:
		return b.Contextual
	case SpaceRole:
		return b.Role
	}
	return nil
}

// Map returns the bundle keyed by space name, as stored in the vector index.
func (b Bundle) Map() map[string][]float64 {
	return map[string][]float64{
		string(SpaceSemantic):   b.Semantic,
		string(SpaceTemporal):   b.Temporal,
		string(SpaceContextual): b.Contextual,
		string(SpaceRole):       b.Role,
	}
}

// Validate checks every vector in the bundle against the configured dimensions.
func (b Bundle) Validate(dims Dimensions) error {
	for _, s := range AllSpaces {
		if got, want := len(b.Get(s)), dims.Of(s); got != want {
			return fmt.Errorf("%w: %s has %d values, expected %d", ErrDimensionMismatch, s, got, want)
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
