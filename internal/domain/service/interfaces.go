// Package service holds the domain services of the risk engine: stochastic
// scenario generation, cash-flow projection, IRR root-finding, and the
// interfaces of the external collaborators the engine talks to.
package service

import (
	"context"

	"github.com/urbanyield/riskengine/internal/domain/models"
)

// TransitionNotifier delivers grade transition events to the external
// alert/reprice collaborator. Delivery happens after the run's transaction
// commits; failures are logged, never rolled back.
type TransitionNotifier interface {
	PublishTransition(ctx context.Context, event models.GradeTransitionEvent) error
	Close() error
}

// VectorIndexUpdater offers refreshed risk metadata to the external search
// index after a run. A failed update must not affect the persisted result.
type VectorIndexUpdater interface {
	UpdateRiskMetadata(ctx context.Context, property *models.Property, result *models.RiskResult) error
}

// BaselineProvider supplies market priors when the simulation config leaves
// them unset. Backed by the read-only MarketMetric series.
type BaselineProvider interface {
	// BaseInterestRate returns the interest-rate prior, or the fallback
	// when no observation exists.
	BaseInterestRate(ctx context.Context, fallback float64) (float64, error)

	// RentIndexFactor returns a multiplier applied to a property's base
	// rent, 1.0 when no rent-index observation exists.
	RentIndexFactor(ctx context.Context) (float64, error)
}
