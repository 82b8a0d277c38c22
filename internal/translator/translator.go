package translator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/monoko6666/mercari-ebay/internal/scraper"
	"github.com/monoko6666/mercari-ebay/logger"
	"github.com/monoko6666/mercari-ebay/metrics"
	"github.com/monoko6666/mercari-ebay/pkg/errors"
)

const (
	// MaxTitleLength is the eBay title limit in characters
	MaxTitleLength = 80

	component = "translator"

	systemPrompt = "You are an expert at writing English eBay listing titles for products sourced from Japan."
)

// Config configures the chat completion endpoint
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Result is the outcome of a translation. Title is empty whenever Err is set.
type Result struct {
	Title string
	Err   error
}

// OK reports whether a title was generated
func (r Result) OK() bool {
	return r.Err == nil && r.Title != ""
}

// Translator generates target-language marketing titles
type Translator interface {
	Translate(ctx context.Context, sourceTitle string) Result
}

// ChatTranslator calls an OpenAI-compatible chat completions API
type ChatTranslator struct {
	cfg     Config
	client  *openai.Client
	metrics *metrics.Metrics
}

// NewChatTranslator creates a translator. A nil client uses a default one.
func NewChatTranslator(cfg Config, client *http.Client, m *metrics.Metrics) *ChatTranslator {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = client

	return &ChatTranslator{cfg: cfg, client: openai.NewClientWithConfig(clientCfg), metrics: m}
}

// Translate never returns an error to the caller: failures yield an empty title
// and are logged with their cause.
func (t *ChatTranslator) Translate(ctx context.Context, sourceTitle string) Result {
	sourceTitle = strings.TrimSpace(sourceTitle)
	if sourceTitle == "" || sourceTitle == scraper.TitleNotFound {
		t.metrics.IncTranslation("skipped")
		return Result{}
	}

	title, err := t.generate(ctx, sourceTitle)
	log := logger.ForTranslator().WithContext(ctx)
	if err != nil {
		t.metrics.IncTranslation("failure")
		log.Error().Err(err).Str("source_title", sourceTitle).Msg("Title generation failed")
		return Result{Err: err}
	}

	t.metrics.IncTranslation("success")
	log.Debug().
		Str("source_title", sourceTitle).
		Str("title", title).
		Msg("Generated title")
	return Result{Title: title}
}

func (t *ChatTranslator) generate(ctx context.Context, sourceTitle string) (string, error) {
	if t.cfg.APIKey == "" {
		return "", errors.NewTranslation(component, "api key is not configured", nil)
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(sourceTitle)},
		},
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: float32(t.cfg.Temperature),
	})
	if err != nil {
		return "", errors.NewTranslation(component, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.NewTranslation(component, "response has no choices", nil)
	}

	title := Truncate(strings.TrimSpace(resp.Choices[0].Message.Content), MaxTitleLength)
	if title == "" {
		return "", errors.NewTranslation(component, "empty completion", nil)
	}
	return title, nil
}

// BuildPrompt embeds the source title in the title-writing rules
func BuildPrompt(sourceTitle string) string {
	var b strings.Builder
	b.WriteString("Write an English eBay listing title for the following Japanese product name.\n")
	b.WriteString("Rules:\n")
	fmt.Fprintf(&b, "- At most %d characters including spaces\n", MaxTitleLength)
	b.WriteString("- Keep the brand, character, model and other terms that identify the product\n")
	b.WriteString("- Where it reads naturally, add qualifiers buyers search for such as condition, rarity or origin (e.g. Japan, New, Rare, Limited)\n")
	b.WriteString("- Do not end the title with punctuation\n")
	b.WriteString("- Reply with the title only\n\n")
	fmt.Fprintf(&b, "Japanese product name: %s", sourceTitle)
	return b.String()
}

// Truncate cuts s to at most n characters without regard to word boundaries
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
