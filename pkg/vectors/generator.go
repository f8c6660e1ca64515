package vectors

import (
	"context"
	"errors"
	"time"

	"github.com/oceanbase/decaymem-go/pkg/embedder"
)

// Input describes one utterance to encode.
type Input struct {
	// Content is the text of the utterance.
	Content string

	// Timestamp is when the utterance occurred. Zero means now.
	Timestamp time.Time

	// Tags are free-form context labels.
	Tags []string

	// EmotionalCharge is the absolute sentiment in [0,1].
	EmotionalCharge float64

	// Distinctiveness is how distinct the memory is, in [0,1].
	Distinctiveness float64

	// Role is the speaker role.
	Role Role
}

// Config configures a Generator.
type Config struct {
	Dimensions   Dimensions
	SlotStrategy SlotStrategy

	// Location is the zone calendar fields are read in. Nil means UTC.
	Location *time.Location
}

// Generator produces complete vector bundles.
//
// Example:
//
//	gen, _ := vectors.NewGenerator(provider, vectors.Config{Dimensions: vectors.DefaultDimensions()})
//	bundle, err := gen.Generate(ctx, vectors.Input{
//	    Content: "remind me about the dentist",
//	    Tags:    []string{"conversation"},
//	    Role:    vectors.RoleUser,
//	})
type Generator struct {
	dims       Dimensions
	semantic   *SemanticGenerator
	temporal   *TemporalGenerator
	contextual *ContextualGenerator
	role       RoleGenerator
}

// NewGenerator builds a Generator on top of an embedding provider.
func NewGenerator(provider embedder.Provider, cfg Config) (*Generator, error) {
	if provider == nil {
		return nil, errors.New("vectors: embedding provider is required")
	}
	if err := cfg.Dimensions.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		dims:       cfg.Dimensions,
		semantic:   NewSemanticGenerator(provider, cfg.Dimensions.Semantic),
		temporal:   NewTemporalGenerator(cfg.Dimensions.Temporal, cfg.Location),
		contextual: NewContextualGenerator(cfg.Dimensions.Contextual, cfg.SlotStrategy),
	}, nil
}

// Dimensions returns the configured dimensions.
func (g *Generator) Dimensions() Dimensions {
	return g.dims
}

// Contextual exposes the contextual generator, mainly for inspecting tag slots.
func (g *Generator) Contextual() *ContextualGenerator {
	return g.contextual
}

// Generate encodes one input.
func (g *Generator) Generate(ctx context.Context, in Input) (Bundle, error) {
	semantic, err := g.semantic.Generate(ctx, in.Content)
	if err != nil {
		return Bundle{}, err
	}
	return g.assemble(semantic, in), nil
}

// GenerateBatch encodes inputs with a single embedding call. Contextual
// slots are assigned in input order.
func (g *Generator) GenerateBatch(ctx context.Context, ins []Input) ([]Bundle, error) {
	texts := make([]string, len(ins))
	for i, in := range ins {
		texts[i] = in.Content
	}
	semantics, err := g.semantic.GenerateBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	out := make([]Bundle, len(ins))
	for i, in := range ins {
		out[i] = g.assemble(semantics[i], in)
	}
	return out, nil
}

func (g *Generator) assemble(semantic []float64, in Input) Bundle {
	return Bundle{
		Semantic:   semantic,
		Temporal:   g.temporal.Generate(in.Timestamp),
		Contextual: g.contextual.Generate(in.Tags, in.EmotionalCharge, in.Distinctiveness),
		Role:       g.role.Generate(in.Role),
	}
}
