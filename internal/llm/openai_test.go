package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: server.URL + "/v1",
	})
	require.NoError(t, err)
	return p
}

func openAIReply(content, finish string, seen *map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 5, "total_tokens": 45},
		})
	}
}

func TestOpenAIProvider_Verdict(t *testing.T) {
	var sent map[string]any
	p := newTestOpenAIProvider(t, openAIReply(`{"verdict":0}`, "stop", &sent))

	req := UserRequest("Judge the answer.", "Question: Explain the GIL. User Answer: a lock")
	req.Schema = verdictSchema
	resp, err := p.Generate(context.Background(), req)

	require.NoError(t, err)
	assert.JSONEq(t, `{"verdict":0}`, string(resp.Content))
	assert.Equal(t, 45, resp.Usage.TotalTokens)
	assert.Equal(t, "end", resp.StopReason)

	format, ok := sent["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing from request")
	assert.Equal(t, "json_schema", format["type"])

	msgs := sent["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIProvider_TruncatedVerdict(t *testing.T) {
	p := newTestOpenAIProvider(t, openAIReply(`{"verd`, "length", nil))

	req := UserRequest("", "grade")
	req.Schema = verdictSchema
	_, err := p.Generate(context.Background(), req)

	var mt *ErrMaxTokensExceeded
	assert.True(t, errors.As(err, &mt), "got %T (%v)", err, err)
}

func TestOpenAIProvider_Errors(t *testing.T) {
	errorHandler := func(status int) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "error", "message": http.StatusText(status)},
			})
		}
	}

	p := newTestOpenAIProvider(t, errorHandler(http.StatusTooManyRequests))
	_, err := p.Generate(context.Background(), UserRequest("", "test"))
	var rl *ErrRateLimit
	assert.True(t, errors.As(err, &rl), "got %T (%v)", err, err)

	p = newTestOpenAIProvider(t, errorHandler(http.StatusBadGateway))
	_, err = p.Generate(context.Background(), UserRequest("", "test"))
	var unavail *ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavail), "got %T (%v)", err, err)

	p = newTestOpenAIProvider(t, errorHandler(http.StatusNotFound))
	_, err = p.Generate(context.Background(), UserRequest("", "test"))
	var rejected *ErrRequestRejected
	assert.True(t, errors.As(err, &rejected), "got %T (%v)", err, err)
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"})
	assert.Error(t, err)
}
