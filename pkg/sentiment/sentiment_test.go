package sentiment_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/llm"
	"github.com/oceanbase/decaymem-go/pkg/sentiment"
)

func TestCharge(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{0, 0},
		{0.6, 0.6},
		{-0.6, 0.6},
		{-1, 1},
		{1.7, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sentiment.Charge(tt.score), "score %v", tt.score)
	}
}

func TestLexiconPolarity(t *testing.T) {
	lex := sentiment.NewLexicon(nil)

	tests := []struct {
		name string
		text string
		sign float64
	}{
		{"positive", "I love this place", 1},
		{"negative", "This is terrible", -1},
		{"neutral", "The meeting is at noon", 0},
		{"negation", "I do not love this", -1},
		{"contraction negation", "I don't like mondays", -1},
		{"contrastive but", "The food was good but the service was terrible", -1},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := lex.Compound(tt.text)
			assert.GreaterOrEqual(t, s, -1.0)
			assert.LessOrEqual(t, s, 1.0)
			switch {
			case tt.sign > 0:
				assert.Greater(t, s, 0.0)
			case tt.sign < 0:
				assert.Less(t, s, 0.0)
			default:
				assert.Zero(t, s)
			}
		})
	}
}

func TestLexiconIntensity(t *testing.T) {
	lex := sentiment.NewLexicon(nil)
	base := lex.Compound("the trip was good")

	assert.Greater(t, lex.Compound("the trip was very good"), base, "booster")
	assert.Less(t, lex.Compound("the trip was slightly good"), base, "dampener")
	assert.Greater(t, lex.Compound("the trip was good!!!"), base, "exclamation")
	assert.Greater(t, lex.Compound("the trip was GOOD"), base, "emphasis")
	assert.Equal(t, lex.Compound("THE TRIP WAS GOOD"), base, "all caps is not emphasis")
	assert.Equal(t, lex.Compound("good!!!!!!!!"), lex.Compound("good!!!!"), "exclamations cap at four")
}

func TestLexiconExtra(t *testing.T) {
	lex := sentiment.NewLexicon(map[string]float64{"Deadline": -2.5, "good": -1})
	assert.Less(t, lex.Compound("deadline tomorrow"), 0.0)
	assert.Less(t, lex.Compound("good"), 0.0, "extra entries override built-ins")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := lex.Score(ctx, "good")
	assert.ErrorIs(t, err, context.Canceled)

	s, err := lex.Score(context.Background(), "deadline")
	require.NoError(t, err)
	assert.Equal(t, lex.Compound("deadline"), s)
}

type fakeLLM struct {
	resp   string
	err    error
	prompt string
	opts   *llm.GenerateOptions
	calls  int
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	f.calls++
	f.prompt = prompt
	f.opts = llm.ApplyGenerateOptions(opts)
	return f.resp, f.err
}

func (f *fakeLLM) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	return f.Generate(ctx, messages[len(messages)-1].Content, opts...)
}

func (f *fakeLLM) Close() error { return nil }

func TestLLMAnalyzer(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		want    float64
		wantErr bool
	}{
		{"json", `{"compound": -0.6}`, -0.6, false},
		{"fenced", "```json\n{\"compound\": 0.25}\n```", 0.25, false},
		{"bare number", " 0.4 ", 0.4, false},
		{"clamped", `{"compound": 3}`, 1, false},
		{"garbage", "quite sad really", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeLLM{resp: tt.resp}
			got, err := sentiment.NewLLM(provider).Score(context.Background(), "my dog died")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Contains(t, provider.prompt, "my dog died")
			assert.True(t, provider.opts.JSON)
			assert.Equal(t, 0.0, provider.opts.Temperature)
		})
	}
}

func TestLLMAnalyzerErrors(t *testing.T) {
	provider := &fakeLLM{err: errors.New("rate limited")}
	a := sentiment.NewLLM(provider)

	_, err := a.Score(context.Background(), "hello")
	assert.ErrorContains(t, err, "rate limited")

	s, err := a.Score(context.Background(), "   ")
	require.NoError(t, err)
	assert.Zero(t, s)
	assert.Equal(t, 1, provider.calls, "blank text skips the model")
}

func TestAnalyzerFunc(t *testing.T) {
	var a sentiment.Analyzer = sentiment.AnalyzerFunc(func(ctx context.Context, text string) (float64, error) {
		return float64(len(text)) / 10, nil
	})
	s, err := a.Score(context.Background(), "abcde")
	require.NoError(t, err)
	assert.Equal(t, 0.5, s)
}
