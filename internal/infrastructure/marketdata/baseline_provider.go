// Package marketdata adapts the read-only market-metric series into the
// baseline priors the simulation consumes.
package marketdata

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/urbanyield/riskengine/internal/domain/repository"
	"github.com/urbanyield/riskengine/internal/domain/service"
	"github.com/urbanyield/riskengine/pkg/constants"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// BaselineProvider reads interest-rate and rent-index priors from the metric
// repository, memoized for a few minutes: batch runs hit these once per
// window, not once per property.
type BaselineProvider struct {
	metrics repository.MarketMetricRepository
	cache   *gocache.Cache
	log     logger.Logger
}

// NewBaselineProvider creates the provider.
func NewBaselineProvider(metrics repository.MarketMetricRepository, log logger.Logger) *BaselineProvider {
	return &BaselineProvider{
		metrics: metrics,
		cache:   gocache.New(constants.BaselineCacheTTL, 2*constants.BaselineCacheTTL),
		log:     log.WithComponent("BaselineProvider"),
	}
}

var _ service.BaselineProvider = (*BaselineProvider)(nil)

func (p *BaselineProvider) BaseInterestRate(ctx context.Context, fallback float64) (float64, error) {
	if v, ok := p.cache.Get(constants.MetricKindInterestRateBaseline); ok {
		return v.(float64), nil
	}
	metric, err := p.metrics.LatestByKind(ctx, constants.MetricKindInterestRateBaseline)
	if err != nil {
		return 0, err
	}
	rate := fallback
	if metric != nil && metric.Value >= 0 {
		rate = metric.Value
	} else {
		p.log.Debug(ctx, "no interest-rate baseline metric, using fallback", logger.Fields{"fallback": fallback})
	}
	p.cache.SetDefault(constants.MetricKindInterestRateBaseline, rate)
	return rate, nil
}

// RentIndexFactor interprets the rent index as a percentage of the base
// period: an index of 104 means rents run 4% above the proposal estimates.
func (p *BaselineProvider) RentIndexFactor(ctx context.Context) (float64, error) {
	if v, ok := p.cache.Get(constants.MetricKindRentIndex); ok {
		return v.(float64), nil
	}
	metric, err := p.metrics.LatestByKind(ctx, constants.MetricKindRentIndex)
	if err != nil {
		return 0, err
	}
	factor := 1.0
	if metric != nil && metric.Value > 0 {
		factor = metric.Value / 100
	}
	p.cache.SetDefault(constants.MetricKindRentIndex, factor)
	return factor, nil
}
