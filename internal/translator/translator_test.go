package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monoko6666/mercari-ebay/internal/scraper"
	"github.com/monoko6666/mercari-ebay/metrics"
	"github.com/monoko6666/mercari-ebay/pkg/errors"
)

const completionsURL = "https://llm.test/v1/chat/completions"

func testConfig() Config {
	return Config{
		APIKey:      "sk-test",
		BaseURL:     "https://llm.test/v1/",
		Model:       "gpt-4",
		MaxTokens:   100,
		Temperature: 0.5,
		Timeout:     5 * time.Second,
	}
}

func completion(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
}

func newTranslator(t *testing.T, cfg Config) (*ChatTranslator, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	return NewChatTranslator(cfg, &http.Client{Transport: transport}, metrics.New()), transport
}

func TestTranslate(t *testing.T) {
	tr, transport := newTranslator(t, testConfig())

	transport.RegisterResponder("POST", completionsURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))

		var body struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "gpt-4", body.Model)
		assert.Equal(t, 100, body.MaxTokens)
		assert.Equal(t, 0.5, body.Temperature)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "user", body.Messages[1].Role)
		assert.Contains(t, body.Messages[1].Content, "ピカチュウ ぬいぐるみ")
		assert.Contains(t, body.Messages[1].Content, "80 characters")

		return httpmock.NewJsonResponse(200, completion("  Pokemon Pikachu Plush Toy Japan New  "))
	})

	result := tr.Translate(context.Background(), "ピカチュウ ぬいぐるみ")
	assert.True(t, result.OK())
	assert.NoError(t, result.Err)
	assert.Equal(t, "Pokemon Pikachu Plush Toy Japan New", result.Title)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestTranslateTruncatesToLimit(t *testing.T) {
	tr, transport := newTranslator(t, testConfig())

	long := strings.Repeat("Pokemon Plush ", 10)
	transport.RegisterResponder("POST", completionsURL, httpmock.NewJsonResponderOrPanic(200, completion(long)))

	result := tr.Translate(context.Background(), "ポケモン ぬいぐるみ")
	assert.True(t, result.OK())
	assert.Equal(t, MaxTitleLength, utf8.RuneCountInString(result.Title))
	assert.Equal(t, strings.TrimSpace(long)[:MaxTitleLength], result.Title)
}

func TestTranslateSkipsEmptyAndSentinel(t *testing.T) {
	tr, transport := newTranslator(t, testConfig())
	transport.RegisterResponder("POST", completionsURL, httpmock.NewJsonResponderOrPanic(200, completion("unused")))

	for _, title := range []string{"", "   ", scraper.TitleNotFound} {
		result := tr.Translate(context.Background(), title)
		assert.Equal(t, "", result.Title)
		assert.NoError(t, result.Err)
		assert.False(t, result.OK())
	}
	assert.Equal(t, 0, transport.GetTotalCallCount())
}

func TestTranslateFailuresYieldEmptyTitle(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(500, `{"error":"boom"}`)},
		{"unauthorized", httpmock.NewStringResponder(401, `{"error":"bad key"}`)},
		{"malformed json", httpmock.NewStringResponder(200, `{"choices": [`)},
		{"no choices", httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{"choices": []interface{}{}})},
		{"blank content", httpmock.NewJsonResponderOrPanic(200, completion("   "))},
		{"transport error", httpmock.NewErrorResponder(assert.AnError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, transport := newTranslator(t, testConfig())
			transport.RegisterResponder("POST", completionsURL, tt.responder)

			result := tr.Translate(context.Background(), "ピカチュウ")
			assert.Equal(t, "", result.Title)
			assert.False(t, result.OK())
			assert.True(t, errors.Is(result.Err, errors.ErrorTypeTranslation))
			assert.Equal(t, 1, transport.GetTotalCallCount())
		})
	}
}

func TestTranslateWithoutAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = ""
	tr, transport := newTranslator(t, cfg)

	result := tr.Translate(context.Background(), "ピカチュウ")
	assert.Equal(t, "", result.Title)
	assert.True(t, errors.Is(result.Err, errors.ErrorTypeTranslation))
	assert.Equal(t, 0, transport.GetTotalCallCount())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 80))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本製", 2))
}
