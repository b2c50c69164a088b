package marketdata_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/infrastructure/marketdata"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// fakeMetricRepo serves canned metrics and counts repository hits so the
// memoization behavior is observable.
type fakeMetricRepo struct {
	metrics map[string]*models.MarketMetric
	err     error
	calls   int
}

func (f *fakeMetricRepo) LatestByKind(_ context.Context, kind string) (*models.MarketMetric, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.metrics[kind], nil
}

func metric(kind string, value float64) *models.MarketMetric {
	return &models.MarketMetric{
		ID:         "m-1",
		Kind:       kind,
		Value:      value,
		ObservedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestBaseInterestRate_FromMetric(t *testing.T) {
	repo := &fakeMetricRepo{metrics: map[string]*models.MarketMetric{
		"interest_rate_baseline": metric("interest_rate_baseline", 0.055),
	}}
	p := marketdata.NewBaselineProvider(repo, logger.NewNoopLogger())

	rate, err := p.BaseInterestRate(context.Background(), 0.04)
	require.NoError(t, err)
	assert.Equal(t, 0.055, rate)
}

func TestBaseInterestRate_FallbackWhenAbsent(t *testing.T) {
	repo := &fakeMetricRepo{}
	p := marketdata.NewBaselineProvider(repo, logger.NewNoopLogger())

	rate, err := p.BaseInterestRate(context.Background(), 0.04)
	require.NoError(t, err)
	assert.Equal(t, 0.04, rate)
}

func TestBaseInterestRate_Memoized(t *testing.T) {
	repo := &fakeMetricRepo{metrics: map[string]*models.MarketMetric{
		"interest_rate_baseline": metric("interest_rate_baseline", 0.05),
	}}
	p := marketdata.NewBaselineProvider(repo, logger.NewNoopLogger())

	for i := 0; i < 5; i++ {
		rate, err := p.BaseInterestRate(context.Background(), 0.04)
		require.NoError(t, err)
		assert.Equal(t, 0.05, rate)
	}
	assert.Equal(t, 1, repo.calls, "repeated reads within the TTL hit the repository once")
}

func TestBaseInterestRate_RepositoryError(t *testing.T) {
	repo := &fakeMetricRepo{err: fmt.Errorf("connection refused")}
	p := marketdata.NewBaselineProvider(repo, logger.NewNoopLogger())

	_, err := p.BaseInterestRate(context.Background(), 0.04)
	require.Error(t, err)
}

func TestRentIndexFactor(t *testing.T) {
	repo := &fakeMetricRepo{metrics: map[string]*models.MarketMetric{
		"rent_index": metric("rent_index", 104),
	}}
	p := marketdata.NewBaselineProvider(repo, logger.NewNoopLogger())

	factor, err := p.RentIndexFactor(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.04, factor, 1e-9)
}

func TestRentIndexFactor_DefaultsToUnity(t *testing.T) {
	repo := &fakeMetricRepo{}
	p := marketdata.NewBaselineProvider(repo, logger.NewNoopLogger())

	factor, err := p.RentIndexFactor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, factor)
}
