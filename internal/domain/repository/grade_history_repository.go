package repository

import (
	"context"

	"github.com/urbanyield/riskengine/internal/domain/models"
)

// GradeHistoryRepository persists grade transitions, append-only.
type GradeHistoryRepository interface {
	// Append writes one transition row. It participates in the ambient
	// transaction when the context carries one.
	Append(ctx context.Context, row *models.RiskGradeHistory) error

	// ListByProperty returns the full transition history for a property,
	// oldest first.
	ListByProperty(ctx context.Context, propertyID string) ([]models.RiskGradeHistory, error)
}
