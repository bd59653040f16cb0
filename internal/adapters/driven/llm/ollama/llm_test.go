package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/paperbase/internal/core/ports/driven"
)

func newTestServer(t *testing.T, lastReq *generateRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(lastReq))
		json.NewEncoder(w).Encode(generateResponse{
			Response: "The answer is on page 3.",
			Done:     true,
		})
	}))
}

func TestGenerate(t *testing.T) {
	var lastReq generateRequest
	server := newTestServer(t, &lastReq)
	defer server.Close()

	service := NewLLMService(LLMConfig{BaseURL: server.URL, Model: "llama3.2"})
	defer service.Close()

	text, err := service.Generate(context.Background(), "Where is the answer?", driven.GenerateOptions{
		Temperature: 0.2,
		MaxTokens:   256,
	})
	require.NoError(t, err)

	assert.Equal(t, "The answer is on page 3.", text)
	assert.Equal(t, "llama3.2", lastReq.Model)
	assert.Equal(t, "Where is the answer?", lastReq.Prompt)
	assert.False(t, lastReq.Stream)
	require.NotNil(t, lastReq.Options)
	assert.Equal(t, 0.2, lastReq.Options.Temperature)
	assert.Equal(t, 256, lastReq.Options.NumPredict)
}

func TestGenerate_NoOptions(t *testing.T) {
	var lastReq generateRequest
	server := newTestServer(t, &lastReq)
	defer server.Close()

	service := NewLLMService(LLMConfig{BaseURL: server.URL})

	_, err := service.Generate(context.Background(), "hello", driven.GenerateOptions{})
	require.NoError(t, err)

	assert.Nil(t, lastReq.Options)
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	service := NewLLMService(LLMConfig{BaseURL: server.URL})

	_, err := service.Generate(context.Background(), "hello", driven.GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerate_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	service := NewLLMService(LLMConfig{BaseURL: server.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Generate(ctx, "hello", driven.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaults(t *testing.T) {
	service := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultBaseURL, service.baseURL)
	assert.Equal(t, DefaultLLMModel, service.ModelName())
}
