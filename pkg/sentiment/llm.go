package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/oceanbase/decaymem-go/pkg/llm"
)

const polarityPrompt = `Rate the overall sentiment of the text between the markers as a compound polarity score.
-1 means extremely negative, 0 means neutral, 1 means extremely positive.
Respond with a JSON object of the form {"compound": <number>} and nothing else.

<<<
%s
>>>`

// LLM scores polarity by asking a chat model.
type LLM struct {
	provider llm.Provider
}

// NewLLM creates an analyzer backed by provider.
func NewLLM(provider llm.Provider) *LLM {
	return &LLM{provider: provider}
}

// Score asks the model for a compound polarity and clamps it to [-1,1].
func (a *LLM) Score(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	resp, err := a.provider.Generate(ctx, fmt.Sprintf(polarityPrompt, text),
		llm.WithJSONResponse(),
		llm.WithTemperature(0),
		llm.WithMaxTokens(32),
	)
	if err != nil {
		return 0, fmt.Errorf("sentiment llm: %w", err)
	}
	return parsePolarity(resp)
}

// parsePolarity accepts {"compound": x} or a bare number, optionally fenced.
func parsePolarity(resp string) (float64, error) {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var obj struct {
		Compound *float64 `json:"compound"`
	}
	if err := json.Unmarshal([]byte(resp), &obj); err == nil && obj.Compound != nil {
		return clampPolarity(*obj.Compound), nil
	}

	v, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, fmt.Errorf("sentiment llm: unparseable response %q", resp)
	}
	return clampPolarity(v), nil
}
