package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/repository"
)

// marketMetricDBM is the database model for the market_metrics series. The
// ingestion collaborator writes it; the engine only reads.
type marketMetricDBM struct {
	ID           string `gorm:"primaryKey"`
	Kind         string `gorm:"index:idx_market_metrics_kind_observed,priority:1"`
	Subtype      string
	Region       string
	PropertyType string
	DeveloperID  string
	Source       string
	Annotation   string
	Value        float64
	ObservedAt   time.Time `gorm:"index:idx_market_metrics_kind_observed,priority:2,sort:desc"`
}

func (marketMetricDBM) TableName() string {
	return "market_metrics"
}

func (dbm *marketMetricDBM) toDomain() *models.MarketMetric {
	return &models.MarketMetric{
		ID:           dbm.ID,
		Kind:         dbm.Kind,
		Subtype:      dbm.Subtype,
		Region:       dbm.Region,
		PropertyType: dbm.PropertyType,
		DeveloperID:  dbm.DeveloperID,
		Source:       dbm.Source,
		Annotation:   dbm.Annotation,
		Value:        dbm.Value,
		ObservedAt:   dbm.ObservedAt,
	}
}

// MarketMetricRepository is the read-only gorm view of the metric series.
type MarketMetricRepository struct {
	db *gorm.DB
}

// NewMarketMetricRepository creates the repository.
func NewMarketMetricRepository(db *gorm.DB) repository.MarketMetricRepository {
	return &MarketMetricRepository{db: db}
}

func (r *MarketMetricRepository) LatestByKind(ctx context.Context, kind string) (*models.MarketMetric, error) {
	var dbm marketMetricDBM
	err := dbFrom(ctx, r.db).
		Where("kind = ?", kind).
		Order("observed_at DESC").
		First(&dbm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return dbm.toDomain(), nil
}
