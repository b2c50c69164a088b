package repository

import (
	"context"
	"time"

	"github.com/urbanyield/riskengine/internal/domain/models"
)

// PropertyRepository reads the externally-owned property projection. The
// engine may only write the denormalized risk fields.
type PropertyRepository interface {
	// GetProperty returns the property, or (nil, nil) when absent.
	GetProperty(ctx context.Context, propertyID string) (*models.Property, error)

	// UpdateRiskFields writes the denormalized grade and assessment
	// timestamp. It participates in the ambient transaction when the
	// context carries one.
	UpdateRiskFields(ctx context.Context, propertyID string, grade models.RiskGrade, assessedAt time.Time) error

	// GradeDistribution counts properties per grade, excluding ungraded ones.
	GradeDistribution(ctx context.Context) (map[models.RiskGrade]int64, error)

	// ListByGrade returns the properties currently at the given grade.
	ListByGrade(ctx context.Context, grade models.RiskGrade) ([]models.Property, error)
}
