package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/llm"
	"github.com/oceanbase/decaymem-go/pkg/llm/openai"
)

func TestGenerate(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "-0.3"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	client, err := openai.NewClient(&openai.Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "deepseek-chat"})
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Generate(context.Background(), "rate this", llm.WithJSONResponse())
	require.NoError(t, err)
	assert.Equal(t, "-0.3", resp)
	assert.Equal(t, "deepseek-chat", got["model"])

	format, ok := got["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer srv.Close()

	client, err := openai.NewClient(&openai.Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "rate this")
	assert.ErrorContains(t, err, "no choices")

	_, err = openai.NewClient(&openai.Config{})
	assert.Error(t, err)
}
