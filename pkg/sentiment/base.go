// Package sentiment scores the affective polarity of short texts.
//
// A memory's emotional charge is the absolute value of its compound
// polarity, so strongly positive and strongly negative utterances are both
// remembered longer than neutral ones.
package sentiment

import (
	"context"
	"math"
)

// Analyzer returns a compound polarity score in [-1,1] for a text.
type Analyzer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, text string) (float64, error)

// Score calls f.
func (f AnalyzerFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}

// Charge converts a polarity score into an emotional charge in [0,1].
func Charge(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	c := math.Abs(score)
	if c > 1 {
		return 1
	}
	return c
}

func clampPolarity(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
