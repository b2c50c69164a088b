package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanyield/riskengine/internal/domain/models"
	redis "github.com/urbanyield/riskengine/internal/infrastructure/persistence/redis"
	"github.com/urbanyield/riskengine/pkg/logger"
)

func newTestCache(t *testing.T) (*redis.ResultCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cache := redis.NewResultCacheWithClient(client, logger.NewNoopLogger())
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestResultCache_Roundtrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	be := 3.5
	stored := &models.RiskResult{
		ID:              "res-1",
		PropertyID:      "prop-1",
		RunAt:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		MeanIRR:         0.11,
		VaR5:            0.02,
		VaR95:           0.19,
		ProbNegative:    0.04,
		BreakevenYear:   &be,
		RiskGrade:       models.GradeGreen,
		SimulationCount: 5000,
		Seed:            42,
	}
	cache.SetLatest(ctx, stored)

	got, ok := cache.GetLatest(ctx, "prop-1")
	require.True(t, ok)
	assert.Equal(t, "res-1", got.ID)
	assert.Equal(t, 0.11, got.MeanIRR)
	assert.Equal(t, models.GradeGreen, got.RiskGrade)
	require.NotNil(t, got.BreakevenYear)
	assert.Equal(t, 3.5, *got.BreakevenYear)
	assert.True(t, got.RunAt.Equal(stored.RunAt))
}

func TestResultCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	got, ok := cache.GetLatest(context.Background(), "nobody")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestResultCache_CorruptEntryDropped(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("risk:result:prop-1", "{not json"))

	got, ok := cache.GetLatest(ctx, "prop-1")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("risk:result:prop-1"), "corrupt entry must be evicted")
}

func TestResultCache_EntryExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.SetLatest(ctx, &models.RiskResult{ID: "res-1", PropertyID: "prop-1"})
	_, ok := cache.GetLatest(ctx, "prop-1")
	require.True(t, ok)

	mr.FastForward(11 * time.Minute)
	_, ok = cache.GetLatest(ctx, "prop-1")
	assert.False(t, ok)
}
