package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, ":8000", config.HTTPAddr)
	assert.Equal(t, StoreDriverPostgres, config.StoreDriver)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, "products", config.RedisStream)
	assert.Equal(t, 2*time.Second, config.RenderSettle)
	assert.Equal(t, 30*time.Second, config.RenderTimeout)
	assert.Equal(t, "gpt-4", config.OpenAIModel)
	assert.Equal(t, 100, config.OpenAIMaxTokens)
	assert.Equal(t, 0.5, config.OpenAITemperature)
	assert.Equal(t, "mercdn.net", config.MediaHost)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")
	t.Setenv("RENDER_SETTLE_MS", "3000")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("APP_ENVIRONMENT", "production")

	config = LoadConfig()
	assert.Equal(t, ":9090", config.HTTPAddr)
	assert.Equal(t, StoreDriverMemory, config.StoreDriver)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 2, config.RedisDB)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.Equal(t, 3*time.Second, config.RenderSettle)
	assert.Equal(t, 0.2, config.OpenAITemperature)
	assert.True(t, config.IsProduction())
	assert.NoError(t, config.Validate())
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	config.StoreDriver = "sqlite"
	assert.Error(t, config.Validate())

	config = LoadConfig()
	config.DatabaseURL = ""
	assert.Error(t, config.Validate())

	config.StoreDriver = StoreDriverMemory
	assert.NoError(t, config.Validate())

	config.RenderTimeout = config.RenderSettle
	assert.Error(t, config.Validate())
}
