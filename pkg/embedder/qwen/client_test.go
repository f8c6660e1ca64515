package qwen_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/embedder/qwen"
)

func TestEmbedBatch(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/embeddings/text-embedding/text-embedding", r.URL.Path)
		assert.Equal(t, "Bearer dash-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		// Results arrive out of order and are placed by text_index.
		_, _ = w.Write([]byte(`{"output": {"embeddings": [
			{"text_index": 1, "embedding": [0, 1]},
			{"text_index": 0, "embedding": [1, 0]}
		]}}`))
	}))
	defer srv.Close()

	client, err := qwen.NewClient(&qwen.Config{APIKey: "dash-key", BaseURL: srv.URL, Dimensions: 2, TextType: "query"})
	require.NoError(t, err)
	assert.Equal(t, 2, client.Dimensions())

	vecs, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, vecs)

	params, ok := got["parameters"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "query", params["text_type"])
	assert.Equal(t, float64(2), params["dimension"])
}

func TestEmbedErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer bad" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"output": {"embeddings": []}}`))
	}))
	defer srv.Close()

	bad, err := qwen.NewClient(&qwen.Config{APIKey: "bad", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = bad.Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "403")

	short, err := qwen.NewClient(&qwen.Config{APIKey: "ok", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = short.Embed(context.Background(), "x")
	assert.ErrorContains(t, err, "unexpected number of results")

	_, err = qwen.NewClient(&qwen.Config{})
	assert.Error(t, err)
}
