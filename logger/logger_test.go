package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentLoggers(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ForFetcher("rendered").Info().Str("url", "https://jp.mercari.com/item/m1").Msg("fetched")
	out := buf.String()
	assert.Contains(t, out, `"component":"fetcher"`)
	assert.Contains(t, out, `"mode":"rendered"`)
	assert.Contains(t, out, `"service":"mercari-ebay"`)

	buf.Reset()
	ForStore("postgres").Error().Err(errors.New("boom")).Msg("failed to save")
	out = buf.String()
	assert.Contains(t, out, `"component":"store"`)
	assert.Contains(t, out, `"driver":"postgres"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestPublisherLoggerKeepsRequestFields(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ctx := ForAPI().WithField("request_id", "r-2").Attach(context.Background())
	ForPublisher().WithContext(ctx).Warn().Str("event", "product.saved").Msg("Event was not published")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"r-2"`)
	assert.Contains(t, out, `"event":"product.saved"`)
}

func TestContextLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	InitWithWriter(&buf)

	// Without an attached logger the receiver is returned
	api := ForAPI()
	assert.Same(t, api, api.WithContext(context.Background()))

	ctx := api.WithField("request_id", "r-1").Attach(context.Background())
	Default.WithContext(ctx).Info().Msg("handled")
	assert.Contains(t, buf.String(), `"request_id":"r-1"`)

	buf.Reset()
	Default.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}
