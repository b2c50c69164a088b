// Package search holds the adapter towards the external vector-index
// collaborator that mirrors risk metadata into the property search index.
package search

import (
	"context"

	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/service"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// StubUpdater logs the metadata it would push. The real updater lives with
// the search collaborator; the engine only offers the refresh and moves on.
type StubUpdater struct {
	log logger.Logger
}

// NewStubUpdater creates the stub.
func NewStubUpdater(log logger.Logger) *StubUpdater {
	return &StubUpdater{log: log.WithComponent("VectorIndexUpdater")}
}

var _ service.VectorIndexUpdater = (*StubUpdater)(nil)

func (u *StubUpdater) UpdateRiskMetadata(ctx context.Context, property *models.Property, result *models.RiskResult) error {
	u.log.Debug(ctx, "offering risk metadata to search index", logger.Fields{
		"property_id": property.ID,
		"risk_grade":  string(result.RiskGrade),
		"mean_irr":    result.MeanIRR,
	})
	return nil
}
