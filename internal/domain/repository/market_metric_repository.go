package repository

import (
	"context"

	"github.com/urbanyield/riskengine/internal/domain/models"
)

// MarketMetricRepository reads the write-once metric time series owned by
// the market-data ingestion collaborator. The risk engine never writes it.
type MarketMetricRepository interface {
	// LatestByKind returns the newest observation of a metric kind, or
	// (nil, nil) when the series is empty.
	LatestByKind(ctx context.Context, kind string) (*models.MarketMetric, error)
}
