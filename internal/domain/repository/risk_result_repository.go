package repository

import (
	"context"

	"github.com/urbanyield/riskengine/internal/domain/models"
)

// RiskResultRepository persists simulation runs. Rows are append-only; there
// is deliberately no update or delete.
type RiskResultRepository interface {
	// Save appends one run. It participates in the ambient transaction when
	// the context carries one.
	Save(ctx context.Context, result *models.RiskResult) error

	// LatestByProperty returns the most recent run for a property, or
	// (nil, nil) when none exists so callers can decide how to signal it.
	LatestByProperty(ctx context.Context, propertyID string) (*models.RiskResult, error)

	// ListByProperty returns all runs for a property, newest first.
	ListByProperty(ctx context.Context, propertyID string) ([]models.RiskResult, error)
}
