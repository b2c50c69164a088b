package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/repository"
)

// riskGradeHistoryDBM is the database model for the risk_grade_history table.
type riskGradeHistoryDBM struct {
	ID         string    `gorm:"primaryKey"`
	PropertyID string    `gorm:"index"`
	OldGrade   *string   // null on first assignment
	NewGrade   string
	ChangedAt  time.Time
	Reason     string

	TriggeredAlert   bool
	TriggeredReprice bool
}

func (riskGradeHistoryDBM) TableName() string {
	return "risk_grade_history"
}

func (dbm *riskGradeHistoryDBM) toDomain() *models.RiskGradeHistory {
	var old *models.RiskGrade
	if dbm.OldGrade != nil {
		g := models.RiskGrade(*dbm.OldGrade)
		old = &g
	}
	return &models.RiskGradeHistory{
		ID:               dbm.ID,
		PropertyID:       dbm.PropertyID,
		OldGrade:         old,
		NewGrade:         models.RiskGrade(dbm.NewGrade),
		ChangedAt:        dbm.ChangedAt,
		Reason:           dbm.Reason,
		TriggeredAlert:   dbm.TriggeredAlert,
		TriggeredReprice: dbm.TriggeredReprice,
	}
}

func historyFromDomain(row *models.RiskGradeHistory) *riskGradeHistoryDBM {
	var old *string
	if row.OldGrade != nil {
		s := string(*row.OldGrade)
		old = &s
	}
	return &riskGradeHistoryDBM{
		ID:               row.ID,
		PropertyID:       row.PropertyID,
		OldGrade:         old,
		NewGrade:         string(row.NewGrade),
		ChangedAt:        row.ChangedAt,
		Reason:           row.Reason,
		TriggeredAlert:   row.TriggeredAlert,
		TriggeredReprice: row.TriggeredReprice,
	}
}

// GradeHistoryRepository is the gorm implementation of the transition log.
type GradeHistoryRepository struct {
	db *gorm.DB
}

// NewGradeHistoryRepository creates the repository.
func NewGradeHistoryRepository(db *gorm.DB) repository.GradeHistoryRepository {
	return &GradeHistoryRepository{db: db}
}

func (r *GradeHistoryRepository) Append(ctx context.Context, row *models.RiskGradeHistory) error {
	return dbFrom(ctx, r.db).Create(historyFromDomain(row)).Error
}

func (r *GradeHistoryRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.RiskGradeHistory, error) {
	var dbms []riskGradeHistoryDBM
	err := dbFrom(ctx, r.db).
		Where("property_id = ?", propertyID).
		Order("changed_at ASC").
		Find(&dbms).Error
	if err != nil {
		return nil, err
	}
	rows := make([]models.RiskGradeHistory, len(dbms))
	for i := range dbms {
		rows[i] = *dbms[i].toDomain()
	}
	return rows, nil
}
