package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/flashdeck/internal/store"
)

var answerSchema = &Schema{
	Name: "test-answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{"type": "string"},
		},
		"required":             []string{"answer"},
		"additionalProperties": false,
	},
}

func jsonHandler(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func newTestAnthropic(t *testing.T, h http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-haiku"},
		option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)
	return p
}

func TestAnthropicProvider(t *testing.T) {
	t.Run("schema output", func(t *testing.T) {
		p := newTestAnthropic(t, jsonHandler(http.StatusOK, anthropicMessage(`{"answer":"Paris"}`, "end_turn")))
		assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())

		resp, err := p.Generate(context.Background(), Request{
			System:    "sys",
			Messages:  []Message{UserMessage("capital of France?")},
			Schema:    answerSchema,
			MaxTokens: 256,
		})
		require.NoError(t, err)
		assert.JSONEq(t, `{"answer":"Paris"}`, string(resp.Content))
		assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30, TotalTokens: 80}, resp.Usage)
		assert.Equal(t, StopEnd, resp.StopReason)
	})

	t.Run("schema violation", func(t *testing.T) {
		p := newTestAnthropic(t, jsonHandler(http.StatusOK, anthropicMessage(`{"text":"Paris"}`, "end_turn")))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{UserMessage("q")}, Schema: answerSchema, MaxTokens: 64})
		var inv *ErrInvalidResponse
		assert.ErrorAs(t, err, &inv)
	})

	t.Run("truncated", func(t *testing.T) {
		p := newTestAnthropic(t, jsonHandler(http.StatusOK, anthropicMessage(`{"answer":"Pa`, "max_tokens")))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{UserMessage("q")}, MaxTokens: 4})
		var mt *ErrMaxTokensExceeded
		assert.ErrorAs(t, err, &mt)
		assert.False(t, Transient(err))
	})

	t.Run("rate limit", func(t *testing.T) {
		p := newTestAnthropic(t, jsonHandler(http.StatusTooManyRequests, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		}))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{UserMessage("q")}, MaxTokens: 64})
		var rl *ErrRateLimit
		assert.ErrorAs(t, err, &rl)
	})

	t.Run("server error", func(t *testing.T) {
		p := newTestAnthropic(t, jsonHandler(http.StatusInternalServerError, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "boom"},
		}))
		_, err := p.Generate(context.Background(), Request{Messages: []Message{UserMessage("q")}, MaxTokens: 64})
		var un *ErrProviderUnavailable
		assert.ErrorAs(t, err, &un)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewAnthropicProvider(AnthropicConfig{})
		assert.Error(t, err)
	})
}

func openaiCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIProvider(t *testing.T) {
	var (
		mu   sync.Mutex
		seen map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&seen)
		mu.Unlock()
		jsonHandler(http.StatusOK, openaiCompletion(`{"answer":"4"}`, "stop"))(w, r)
	}))
	t.Cleanup(srv.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-mini", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.ModelID())

	resp, err := p.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{UserMessage("2+2?")},
		Schema:   answerSchema,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"4"}`, string(resp.Content))
	assert.Equal(t, 65, resp.Usage.TotalTokens)

	mu.Lock()
	defer mu.Unlock()
	msgs, _ := seen["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	format, _ := seen["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name:    "length finish",
			handler: jsonHandler(http.StatusOK, openaiCompletion(`{"ans`, "length")),
			check: func(t *testing.T, err error) {
				var mt *ErrMaxTokensExceeded
				assert.ErrorAs(t, err, &mt)
			},
		},
		{
			name: "no choices",
			handler: jsonHandler(http.StatusOK, map[string]any{
				"id": "x", "object": "chat.completion", "model": "gpt-4o-mini", "choices": []any{},
			}),
			check: func(t *testing.T, err error) {
				var inv *ErrInvalidResponse
				assert.ErrorAs(t, err, &inv)
			},
		},
		{
			name: "rate limited",
			handler: jsonHandler(http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"message": "slow down", "type": "rate_limit"},
			}),
			check: func(t *testing.T, err error) {
				var rl *ErrRateLimit
				assert.ErrorAs(t, err, &rl)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)
			p := newOpenAICompatible("k", srv.URL+"/v1", "gpt-4o-mini")
			_, err := p.Generate(context.Background(), Request{Messages: []Message{UserMessage("q")}})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: "anthropic/claude-3-haiku"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku", p.ModelID())

	_, err = NewOpenRouterProvider(OpenRouterConfig{Model: "x"})
	assert.Error(t, err)
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 2,
			},
			"correct_answer": map[string]any{"type": "string", "enum": []any{"True", "False"}},
		},
		"required": []string{"options", "correct_answer"},
	})

	assert.Equal(t, "OBJECT", string(s.Type))
	assert.ElementsMatch(t, []string{"options", "correct_answer"}, s.Required)
	require.Contains(t, s.Properties, "options")
	assert.Equal(t, "ARRAY", string(s.Properties["options"].Type))
	assert.Equal(t, "STRING", string(s.Properties["options"].Items.Type))
	require.NotNil(t, s.Properties["options"].MinItems)
	assert.EqualValues(t, 2, *s.Properties["options"].MinItems)
	assert.Equal(t, []string{"True", "False"}, s.Properties["correct_answer"].Enum)
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: json.RawMessage(`{"answer":"a"}`)})
	m.Push(MockResponse{Err: errors.New("boom")})

	resp, err := m.Generate(context.Background(), Request{Schema: answerSchema})
	require.NoError(t, err)
	assert.Equal(t, "mock", resp.Model)

	_, err = m.Generate(context.Background(), Request{})
	assert.EqualError(t, err, "boom")

	_, err = m.Generate(context.Background(), Request{})
	var un *ErrProviderUnavailable
	assert.ErrorAs(t, err, &un)
	assert.Len(t, m.Calls(), 3)
}

func TestValidateJSON(t *testing.T) {
	assert.NoError(t, ValidateJSON(nil, json.RawMessage(`not json`)))
	assert.NoError(t, ValidateJSON(answerSchema, json.RawMessage(`{"answer":"x"}`)))

	for _, raw := range []string{`not json`, `{}`, `{"answer":1}`, `{"answer":"x","extra":true}`} {
		err := ValidateJSON(answerSchema, json.RawMessage(raw))
		var inv *ErrInvalidResponse
		assert.ErrorAs(t, err, &inv, raw)
	}
}

type fakeEventRepo struct {
	store.EventRepo
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (f *fakeEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, data)
	return f.err
}

func TestRecordingProvider(t *testing.T) {
	repo := &fakeEventRepo{}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"answer":"x"}`), Usage: usage(10, 5)},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	p := WithRecorder(mock, ProviderMock, repo, nil)
	ctx := WithPurpose(context.Background(), PurposeAnswerDraft)

	_, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{UserMessage("hi")}, Schema: answerSchema})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 2)
	ok := repo.events[0]
	assert.True(t, ok.Success)
	assert.Equal(t, PurposeAnswerDraft, ok.Purpose)
	assert.Equal(t, ProviderMock, ok.Provider)
	assert.Equal(t, 10, ok.InputTokens)
	assert.Contains(t, ok.RequestBody, "[system]\nsys")
	assert.Contains(t, ok.RequestBody, "[schema: test-answer]")
	assert.JSONEq(t, `{"answer":"x"}`, ok.ResponseBody)

	failed := repo.events[1]
	assert.False(t, failed.Success)
	assert.Equal(t, PurposeUnknown, failed.Purpose)
	assert.Contains(t, failed.ErrorMessage, "down")
}

func TestRecordingProvider_StoreFailureIsIgnored(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("disk full")}
	p := WithRecorder(NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)}), ProviderMock, repo, nil)
	_, err := p.Generate(context.Background(), Request{})
	assert.NoError(t, err)
}

func TestNewProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	p, err := NewProvider(context.Background(), cfg, &fakeEventRepo{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
	_, isTimeout := p.(*TimeoutProvider)
	assert.True(t, isTimeout)

	cfg.Provider = "nope"
	_, err = NewProvider(context.Background(), cfg, nil, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Anthropic.APIKey = ""
	_, err = NewProvider(context.Background(), cfg, nil, nil)
	assert.ErrorContains(t, err, "anthropic")
}

func TestTimeoutProvider(t *testing.T) {
	slow := providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	_, err := WithTimeout(slow, 5*time.Millisecond).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type providerFunc func(ctx context.Context, req Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
func (f providerFunc) ModelID() string { return "func" }

func TestEstimateCost(t *testing.T) {
	usd, ok := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	require.True(t, ok)
	assert.InDelta(t, 0.75, usd, 1e-9)

	_, ok = EstimateCost("unknown-model", 1, 1)
	assert.False(t, ok)
}
