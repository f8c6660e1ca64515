// Package intelligence scores how strongly a memory is retained.
//
// Strength combines three factors into a value in [0,1]:
//   - Recency: exponential forgetting since the memory was last accessed
//   - Frequency: logarithmic reinforcement from repeated retrieval
//   - Emotion: the affective charge captured when the memory was stored
//
// Strength changes continuously with the clock and is never persisted.
package intelligence

import (
	"math"
	"time"
)

// StrengthConfig contains the parameters of the strength model.
type StrengthConfig struct {
	// DecayConstant is the recency time constant. After one DecayConstant
	// without access the recency factor is 1/e. Default: 7 days.
	DecayConstant time.Duration

	// RecencyWeight weights the recency factor. Default: 1.0
	RecencyWeight float64

	// FrequencyWeight weights the frequency factor. Default: 0.5
	FrequencyWeight float64

	// EmotionalWeight weights the emotional factor. Default: 2.0
	EmotionalWeight float64

	// MaxExpectedRetrievals is the retrieval count at which the frequency
	// factor saturates at 1. Default: 100
	MaxExpectedRetrievals int
}

// DefaultStrengthConfig returns the default strength parameters.
func DefaultStrengthConfig() StrengthConfig {
	return StrengthConfig{
		DecayConstant:         7 * 24 * time.Hour,
		RecencyWeight:         1.0,
		FrequencyWeight:       0.5,
		EmotionalWeight:       2.0,
		MaxExpectedRetrievals: 100,
	}
}

// Signals are the stored facts strength is computed from.
type Signals struct {
	LastAccessed    time.Time
	RetrievalCount  int
	EmotionalCharge float64
}

// Breakdown is a strength value together with its factors.
type Breakdown struct {
	Recency   float64 `json:"recency"`
	Frequency float64 `json:"frequency"`
	Emotional float64 `json:"emotional"`
	Strength  float64 `json:"strength"`
}

// Scorer computes memory strength. It is stateless and safe for concurrent use.
//
// Example usage:
//
//	scorer := intelligence.NewScorer(intelligence.DefaultStrengthConfig())
//	s := scorer.Strength(intelligence.Signals{
//	    LastAccessed:    lastAccessed,
//	    RetrievalCount:  3,
//	    EmotionalCharge: 0.4,
//	}, time.Now())
type Scorer struct {
	cfg StrengthConfig
}

// NewScorer creates a Scorer. Zero fields of cfg are replaced with defaults;
// weights are taken as given.
func NewScorer(cfg StrengthConfig) *Scorer {
	def := DefaultStrengthConfig()
	if cfg.DecayConstant <= 0 {
		cfg.DecayConstant = def.DecayConstant
	}
	if cfg.MaxExpectedRetrievals <= 0 {
		cfg.MaxExpectedRetrievals = def.MaxExpectedRetrievals
	}
	return &Scorer{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Scorer) Config() StrengthConfig {
	return s.cfg
}

// Strength returns the strength of a memory at now, in [0,1].
func (s *Scorer) Strength(sig Signals, now time.Time) float64 {
	return s.Breakdown(sig, now).Strength
}

// Breakdown returns the strength and each of its factors.
//
// The formula used is:
//
//	recency   = exp(-(now - last_accessed) / decay_constant)
//	frequency = min(1, ln(1 + count) / ln(1 + max_expected_retrievals))
//	emotional = emotional_charge
//	strength  = clamp((wr*recency + wf*frequency + we*emotional) / (wr + wf + we), 0, 1)
//
// A last access in the future counts as now. If all weights are zero the
// strength is 0.
func (s *Scorer) Breakdown(sig Signals, now time.Time) Breakdown {
	elapsed := now.Sub(sig.LastAccessed)
	if elapsed < 0 {
		elapsed = 0
	}
	recency := math.Exp(-elapsed.Seconds() / s.cfg.DecayConstant.Seconds())

	count := sig.RetrievalCount
	if count < 0 {
		count = 0
	}
	frequency := math.Log1p(float64(count)) / math.Log1p(float64(s.cfg.MaxExpectedRetrievals))
	if frequency > 1 {
		frequency = 1
	}

	emotional := clamp01(sig.EmotionalCharge)

	b := Breakdown{
		Recency:   recency,
		Frequency: frequency,
		Emotional: emotional,
	}

	total := s.cfg.RecencyWeight + s.cfg.FrequencyWeight + s.cfg.EmotionalWeight
	if total == 0 {
		return b
	}
	raw := s.cfg.RecencyWeight*recency + s.cfg.FrequencyWeight*frequency + s.cfg.EmotionalWeight*emotional
	b.Strength = clamp01(raw / total)
	return b
}

// Classify assigns a retention tier to a strength value.
func (s *Scorer) Classify(strength float64) Tier {
	switch {
	case strength < WorkingThreshold:
		return TierWorking
	case strength < ShortTermThreshold:
		return TierShortTerm
	default:
		return TierLongTerm
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
