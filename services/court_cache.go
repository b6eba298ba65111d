// File: services/court_cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pickle-web/logger"
	"pickle-web/models"
)

const courtKeyPrefix = "court:"

// CachedCourts wraps the backend and keeps single-court lookups in Redis.
// Every other call goes straight through. Cache failures fall back to the
// backend.
type CachedCourts struct {
	APIServiceInterface
	rdb redis.Cmdable
	ttl time.Duration
}

// NewCachedCourts decorates api with a Redis court cache.
func NewCachedCourts(api APIServiceInterface, rdb redis.Cmdable, ttl time.Duration) *CachedCourts {
	return &CachedCourts{APIServiceInterface: api, rdb: rdb, ttl: ttl}
}

func courtKey(courtID string) string {
	return courtKeyPrefix + courtID
}

// GetCourt serves from Redis when possible and fills the cache on a miss.
func (c *CachedCourts) GetCourt(ctx context.Context, courtID string) (models.Court, error) {
	key := courtKey(courtID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		court, decodeErr := models.DecodeCourt(raw)
		if decodeErr == nil {
			logger.Debug.Printf("CachedCourts: hit for %s", key)
			return court, nil
		}
		logger.Warn.Printf("CachedCourts: dropping unreadable entry %s: %v", key, decodeErr)
	case errors.Is(err, redis.Nil):
		logger.Debug.Printf("CachedCourts: miss for %s", key)
	default:
		logger.Warn.Printf("CachedCourts: redis get %s failed: %v", key, err)
	}

	court, err := c.APIServiceInterface.GetCourt(ctx, courtID)
	if err != nil {
		return models.Court{}, err
	}

	data, err := json.Marshal(court)
	if err != nil {
		logger.Warn.Printf("CachedCourts: failed to encode court %s: %v", courtID, err)
		return court, nil
	}
	if err := c.rdb.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		logger.Warn.Printf("CachedCourts: redis set %s failed: %v", key, err)
	}
	return court, nil
}
