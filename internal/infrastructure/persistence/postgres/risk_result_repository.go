package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/repository"
)

// riskResultDBM is the database model for the risk_results table. The
// parameter set and distribution summary are schema-less JSON documents so
// their shape can evolve without a migration.
type riskResultDBM struct {
	ID         string    `gorm:"primaryKey"`
	PropertyID string    `gorm:"index:idx_risk_results_property_run,priority:1"`
	RunAt      time.Time `gorm:"index:idx_risk_results_property_run,priority:2,sort:desc"`

	MeanIRR            float64
	VaR5               float64 `gorm:"column:var_5"`
	VaR95              float64 `gorm:"column:var_95"`
	ProbNegative       float64
	ProbAboveThreshold float64
	BreakevenYear      *float64
	FirstYearYield     float64
	RiskGrade          string

	SimulationCount int
	Seed            int64

	Parameters config.SimulationConfig  `gorm:"column:simulation_parameters;serializer:json"`
	Summary    models.SimulationSummary `gorm:"column:simulation_results;serializer:json"`
}

func (riskResultDBM) TableName() string {
	return "risk_results"
}

func (dbm *riskResultDBM) toDomain() *models.RiskResult {
	return &models.RiskResult{
		ID:                 dbm.ID,
		PropertyID:         dbm.PropertyID,
		RunAt:              dbm.RunAt,
		MeanIRR:            dbm.MeanIRR,
		VaR5:               dbm.VaR5,
		VaR95:              dbm.VaR95,
		ProbNegative:       dbm.ProbNegative,
		ProbAboveThreshold: dbm.ProbAboveThreshold,
		BreakevenYear:      dbm.BreakevenYear,
		FirstYearYield:     dbm.FirstYearYield,
		RiskGrade:          models.RiskGrade(dbm.RiskGrade),
		SimulationCount:    dbm.SimulationCount,
		Seed:               dbm.Seed,
		Parameters:         dbm.Parameters,
		Summary:            dbm.Summary,
	}
}

func riskResultFromDomain(result *models.RiskResult) *riskResultDBM {
	return &riskResultDBM{
		ID:                 result.ID,
		PropertyID:         result.PropertyID,
		RunAt:              result.RunAt,
		MeanIRR:            result.MeanIRR,
		VaR5:               result.VaR5,
		VaR95:              result.VaR95,
		ProbNegative:       result.ProbNegative,
		ProbAboveThreshold: result.ProbAboveThreshold,
		BreakevenYear:      result.BreakevenYear,
		FirstYearYield:     result.FirstYearYield,
		RiskGrade:          string(result.RiskGrade),
		SimulationCount:    result.SimulationCount,
		Seed:               result.Seed,
		Parameters:         result.Parameters,
		Summary:            result.Summary,
	}
}

// RiskResultRepository is the gorm implementation of the append-only run
// store.
type RiskResultRepository struct {
	db *gorm.DB
}

// NewRiskResultRepository creates the repository.
func NewRiskResultRepository(db *gorm.DB) repository.RiskResultRepository {
	return &RiskResultRepository{db: db}
}

// Save appends one run row. Results are immutable; only Create, never Save.
func (r *RiskResultRepository) Save(ctx context.Context, result *models.RiskResult) error {
	return dbFrom(ctx, r.db).Create(riskResultFromDomain(result)).Error
}

func (r *RiskResultRepository) LatestByProperty(ctx context.Context, propertyID string) (*models.RiskResult, error) {
	var dbm riskResultDBM
	err := dbFrom(ctx, r.db).
		Where("property_id = ?", propertyID).
		Order("run_at DESC").
		First(&dbm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return dbm.toDomain(), nil
}

func (r *RiskResultRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.RiskResult, error) {
	var dbms []riskResultDBM
	err := dbFrom(ctx, r.db).
		Where("property_id = ?", propertyID).
		Order("run_at DESC").
		Find(&dbms).Error
	if err != nil {
		return nil, err
	}
	results := make([]models.RiskResult, len(dbms))
	for i := range dbms {
		results[i] = *dbms[i].toDomain()
	}
	return results, nil
}
