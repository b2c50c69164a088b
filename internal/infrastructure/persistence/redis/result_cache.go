// Package redis provides the read-side cache of latest risk results.
package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/urbanyield/riskengine/internal/application"
	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/pkg/constants"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// ResultCache caches the latest RiskResult per property. Every operation
// degrades silently: a cache problem must never fail a read or a run.
type ResultCache struct {
	client *goredis.Client
	log    logger.Logger
}

// NewResultCache connects to redis and returns the cache.
func NewResultCache(cfg *config.RedisConfig, log logger.Logger) *ResultCache {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &ResultCache{client: client, log: log.WithComponent("ResultCache")}
}

// NewResultCacheWithClient wraps an existing client. Used in tests.
func NewResultCacheWithClient(client *goredis.Client, log logger.Logger) *ResultCache {
	return &ResultCache{client: client, log: log.WithComponent("ResultCache")}
}

var _ application.ResultCache = (*ResultCache)(nil)

func key(propertyID string) string {
	return constants.CacheKeyRiskResultPrefix + propertyID
}

func (c *ResultCache) GetLatest(ctx context.Context, propertyID string) (*models.RiskResult, bool) {
	raw, err := c.client.Get(ctx, key(propertyID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn(ctx, "cache read failed", logger.Fields{"property_id": propertyID, "error": err.Error()})
		}
		return nil, false
	}
	var result models.RiskResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.log.Warn(ctx, "cache entry corrupt, dropping", logger.Fields{"property_id": propertyID})
		c.client.Del(ctx, key(propertyID))
		return nil, false
	}
	return &result, true
}

func (c *ResultCache) SetLatest(ctx context.Context, result *models.RiskResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.log.Warn(ctx, "cache marshal failed", logger.Fields{"property_id": result.PropertyID, "error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, key(result.PropertyID), raw, constants.RiskResultCacheTTL).Err(); err != nil {
		c.log.Warn(ctx, "cache write failed", logger.Fields{"property_id": result.PropertyID, "error": err.Error()})
	}
}

// Close releases the client.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
