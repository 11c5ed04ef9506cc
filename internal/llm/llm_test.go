package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestRateLimiterRequests(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := newRateLimiter(2, 1000, clock.now)

	require.NoError(t, rl.AllowRequest())
	require.NoError(t, rl.AllowRequest())
	assert.ErrorIs(t, rl.AllowRequest(), ErrRateLimited)

	clock.t = clock.t.Add(31 * time.Second)
	assert.NoError(t, rl.AllowRequest())
}

func TestRateLimiterTokens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	rl := newRateLimiter(60, 3600, clock.now)

	require.NoError(t, rl.AllowTokens(3000))
	assert.ErrorIs(t, rl.AllowTokens(1000), ErrRateLimited)

	clock.t = clock.t.Add(10 * time.Minute)
	assert.NoError(t, rl.AllowTokens(1000))

	rl.ConsumeTokens(10000)
	_, tokens := rl.Stats()
	assert.Equal(t, 0, tokens)
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	req, tok := rl.Stats()
	assert.Equal(t, 60, req)
	assert.Equal(t, 90000, tok)
}

type logged struct {
	runID, purpose, response, model string
	tokens                          int
}

type memLogger struct{ entries []logged }

func (m *memLogger) LogLLMRequest(_ context.Context, runID, purpose, _, response, model string, tokens int) error {
	m.entries = append(m.entries, logged{runID, purpose, response, model, tokens})
	return nil
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.NotNil(t, req.ResponseFormat)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}}},
			Usage:   openai.Usage{TotalTokens: 42},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzePopup(t *testing.T) {
	srv := completionServer(t, `{"has_popup":true,"close_selector":" button.close ","popup_description":"newsletter"}`)
	logger := &memLogger{}
	c := NewClient(Config{APIKey: "k", Model: "test-model", BaseURL: srv.URL + "/v1"}, logger, nil)

	info, err := c.AnalyzePopup(WithRunID(context.Background(), "run-1"), `[{"tag":"button"}]`)
	require.NoError(t, err)
	assert.True(t, info.HasPopup)
	assert.Equal(t, "button.close", info.CloseSelector)
	assert.Equal(t, "newsletter", info.PopupDescription)

	require.Len(t, logger.entries, 1)
	assert.Equal(t, logged{"run-1", "popup", `{"has_popup":true,"close_selector":" button.close ","popup_description":"newsletter"}`, "test-model", 42}, logger.entries[0])
}

func TestAnalyzePopupNoPopupDropsSelector(t *testing.T) {
	srv := completionServer(t, `{"has_popup":false,"close_selector":"button.x"}`)
	c := NewClient(Config{APIKey: "k", Model: "test-model", BaseURL: srv.URL + "/v1"}, nil, nil)

	info, err := c.AnalyzePopup(context.Background(), "[]")
	require.NoError(t, err)
	assert.False(t, info.HasPopup)
	assert.Empty(t, info.CloseSelector)
}

func TestAnalyzePopupBadJSON(t *testing.T) {
	srv := completionServer(t, `not json`)
	c := NewClient(Config{APIKey: "k", Model: "test-model", BaseURL: srv.URL + "/v1"}, nil, nil)

	_, err := c.AnalyzePopup(context.Background(), "[]")
	assert.ErrorContains(t, err, "failed to parse popup analysis")
}
