package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewNetwork("fetcher", "failed to fetch page", cause)

	assert.Equal(t, "[network] fetcher: failed to fetch page - connection refused", err.Error())
	assert.Equal(t, cause, stderrors.Unwrap(err))

	err = NewValidation("api", "url is required")
	assert.Equal(t, "[validation] api: url is required", err.Error())
}

func TestTypeOfWrapped(t *testing.T) {
	err := fmt.Errorf("save listing: %w", NewNotFound("store", "product abc not found"))

	assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
	assert.True(t, Is(err, ErrorTypeNotFound))
	assert.False(t, Is(err, ErrorTypeNetwork))
	assert.False(t, Is(nil, ErrorTypeNotFound))
	assert.Equal(t, ErrorType(""), TypeOf(stderrors.New("plain")))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "price not found", Message(NewParsing("extractor", "price not found", nil)))
	assert.Equal(t, "failed to fetch page: timeout",
		Message(NewNetwork("fetcher", "failed to fetch page", stderrors.New("timeout"))))
	assert.Equal(t, "plain", Message(stderrors.New("plain")))
}

func TestMessageHidesInternalCauses(t *testing.T) {
	cause := stderrors.New(`pq: relation "products" does not exist`)
	assert.Equal(t, "failed to list products", Message(NewStore("listing", "failed to list products", cause)))
	assert.Equal(t, "invalid DATABASE_URL", Message(NewConfiguration("invalid DATABASE_URL", cause)))
}
