package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/monoko6666/mercari-ebay/logger"
	"github.com/monoko6666/mercari-ebay/services/store"
)

// SettingsKey is the cache key holding the encoded settings map
const SettingsKey = "mercari_ebay:settings"

// SettingsStore is a read-through cache in front of a store.SettingsStore.
// Cache failures are logged and the backing store is used directly.
type SettingsStore struct {
	next  store.SettingsStore
	cache CacheService
	ttl   time.Duration
}

// NewSettingsStore wraps next with cache
func NewSettingsStore(next store.SettingsStore, cache CacheService, ttl time.Duration) *SettingsStore {
	return &SettingsStore{next: next, cache: cache, ttl: ttl}
}

func (s *SettingsStore) All(ctx context.Context) (map[string]float64, error) {
	log := logger.ForCache()

	if data, err := s.cache.Get(SettingsKey); err == nil {
		var values map[string]float64
		if err := json.Unmarshal(data, &values); err == nil {
			return store.WithDefaults(values), nil
		}
		log.Warn().Msg("Discarding undecodable cached settings")
	} else if !errors.Is(err, ErrMiss) {
		log.Warn().Err(err).Msg("Settings cache read failed")
	}

	values, err := s.next.All(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(values); err == nil {
		if err := s.cache.Set(SettingsKey, data, s.ttl); err != nil {
			log.Warn().Err(err).Msg("Settings cache write failed")
		}
	}
	return values, nil
}

// Upsert writes through to the store and invalidates the cached map
func (s *SettingsStore) Upsert(ctx context.Context, values map[string]float64) error {
	if err := s.next.Upsert(ctx, values); err != nil {
		return err
	}
	if err := s.cache.Delete(SettingsKey); err != nil {
		logger.ForCache().Warn().Err(err).Msg("Settings cache invalidation failed")
	}
	return nil
}
