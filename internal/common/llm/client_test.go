package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens int `json:"max_tokens"`
}

func newCompletionServer(t *testing.T, content string, captured *chatRequest) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestComplete_SendsSystemAndUserPrompt(t *testing.T) {
	var req chatRequest
	url := newCompletionServer(t, `{"assetNumber":3}`, &req)

	client, err := NewClient(Config{BaseURL: url, APIKey: "sk-test", Model: "gpt-4o-mini", MaxTokens: 256})
	require.NoError(t, err)

	out, err := client.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"assetNumber":3}`, out)

	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 256, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "system text", req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "user text", req.Messages[1].Content)
}

func TestComplete_EmptyContent(t *testing.T) {
	url := newCompletionServer(t, "   ", nil)
	client, err := NewClient(Config{BaseURL: url, APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Model: "nope"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestNewClient_RequiresKeyAndModel(t *testing.T) {
	_, err := NewClient(Config{Model: "m"})
	assert.Error(t, err)

	_, err = NewClient(Config{APIKey: "k"})
	assert.Error(t, err)
}
