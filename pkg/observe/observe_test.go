package observe

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	obs := New(&buf, Options{Level: "warn"})
	require.NotNil(t, obs.Log())

	obs.Log().Info().Msg("hidden")
	assert.NotContains(t, buf.String(), "hidden")

	obs.Log().Warn().Str("id", "m1").Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	obs := New(&buf, Options{Level: "debug", Format: FormatJSON})

	obs.Log().Debug().Str("space", "semantic").Msg("query")
	assert.Contains(t, buf.String(), `"space"`)
	assert.Contains(t, buf.String(), "semantic")
}

func TestStartSpan(t *testing.T) {
	obs := Nop()
	ctx, span := obs.StartSpan(context.Background(), "test")
	defer span.End()
	assert.NotNil(t, ctx)
	assert.NoError(t, obs.Close())
}
