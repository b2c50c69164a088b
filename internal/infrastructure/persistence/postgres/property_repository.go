package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/repository"
)

// propertyDBM is the database model for the properties projection. The CRM
// collaborator owns everything except the risk fields.
type propertyDBM struct {
	ID string `gorm:"primaryKey"`

	AcquisitionPrice     float64
	SizeSqft             float64
	ADR                  float64 `gorm:"column:adr"`
	OccupancyRate        float64
	ServiceChargePerSqft float64
	DeveloperRiskScore   float64

	RiskGrade          *string `gorm:"index"`
	LastRiskAssessment *time.Time
}

func (propertyDBM) TableName() string {
	return "properties"
}

func (dbm *propertyDBM) toDomain() *models.Property {
	var grade *models.RiskGrade
	if dbm.RiskGrade != nil {
		g := models.RiskGrade(*dbm.RiskGrade)
		grade = &g
	}
	return &models.Property{
		ID:                   dbm.ID,
		AcquisitionPrice:     dbm.AcquisitionPrice,
		SizeSqft:             dbm.SizeSqft,
		ADR:                  dbm.ADR,
		OccupancyRate:        dbm.OccupancyRate,
		ServiceChargePerSqft: dbm.ServiceChargePerSqft,
		DeveloperRiskScore:   dbm.DeveloperRiskScore,
		RiskGrade:            grade,
		LastRiskAssessment:   dbm.LastRiskAssessment,
	}
}

// PropertyRepository is the gorm implementation of the property projection.
type PropertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates the repository.
func NewPropertyRepository(db *gorm.DB) repository.PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	var dbm propertyDBM
	err := dbFrom(ctx, r.db).Where("id = ?", propertyID).First(&dbm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return dbm.toDomain(), nil
}

// UpdateRiskFields writes only the two columns the engine owns.
func (r *PropertyRepository) UpdateRiskFields(ctx context.Context, propertyID string, grade models.RiskGrade, assessedAt time.Time) error {
	return dbFrom(ctx, r.db).
		Model(&propertyDBM{}).
		Where("id = ?", propertyID).
		Updates(map[string]interface{}{
			"risk_grade":           string(grade),
			"last_risk_assessment": assessedAt,
		}).Error
}

func (r *PropertyRepository) GradeDistribution(ctx context.Context) (map[models.RiskGrade]int64, error) {
	type gradeCount struct {
		RiskGrade string
		Count     int64
	}
	var counts []gradeCount
	err := dbFrom(ctx, r.db).
		Model(&propertyDBM{}).
		Select("risk_grade, count(*) as count").
		Where("risk_grade IS NOT NULL").
		Group("risk_grade").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	dist := make(map[models.RiskGrade]int64, len(counts))
	for _, c := range counts {
		dist[models.RiskGrade(c.RiskGrade)] = c.Count
	}
	return dist, nil
}

func (r *PropertyRepository) ListByGrade(ctx context.Context, grade models.RiskGrade) ([]models.Property, error) {
	var dbms []propertyDBM
	err := dbFrom(ctx, r.db).
		Where("risk_grade = ?", string(grade)).
		Order("id ASC").
		Find(&dbms).Error
	if err != nil {
		return nil, err
	}
	props := make([]models.Property, len(dbms))
	for i := range dbms {
		props[i] = *dbms[i].toDomain()
	}
	return props, nil
}
