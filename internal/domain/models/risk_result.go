package models

import (
	"fmt"
	"time"

	"github.com/urbanyield/riskengine/internal/config"
)

// SimulationSummary is the persisted reduction of one run's IRR distribution.
// It is stored as a schema-less document: the known fields below are typed,
// and Extra carries forward-compatible additions without a schema migration.
type SimulationSummary struct {
	// Percentiles maps "p5", "p25", "p50", "p75", "p95" to IRR values
	// computed over converged scenarios.
	Percentiles map[string]float64 `json:"percentiles"`

	// Histogram bins the converged IRRs. Bin i covers
	// [p5 - w + i*w, p5 - w + (i+1)*w) with w = (p95-p5)/len(Histogram);
	// out-of-range values clamp to the edge bins. The exporter reconstructs
	// rows from exactly this layout.
	Histogram []int `json:"histogram"`

	// SolverFailures counts scenarios where no IRR root could be bracketed.
	SolverFailures int `json:"solver_failures"`
	// InferredSign counts non-converged scenarios whose IRR sign was still
	// inferable and therefore included in prob_negative.
	InferredSign int `json:"inferred_sign"`
	// ExcludedNoSign counts scenarios dropped from every statistic.
	ExcludedNoSign int `json:"excluded_no_sign"`

	Extra map[string]interface{} `json:"extra,omitempty"`
}

// RiskResult is one simulation run for one property. Rows are append-only
// and immutable once written; per-property history is ordered by RunAt.
type RiskResult struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	RunAt      time.Time `json:"run_at"`

	MeanIRR float64 `json:"mean_irr"`
	// VaR5 and VaR95 are the 5th/95th percentiles of the simulated IRR
	// distribution. The names are historical; they are distribution spread
	// indicators, not a formal value-at-risk measure.
	VaR5  float64 `json:"var_5"`
	VaR95 float64 `json:"var_95"`

	ProbNegative       float64 `json:"prob_negative"`
	ProbAboveThreshold float64 `json:"prob_above_threshold"`

	// BreakevenYear is the median fractional breakeven year across
	// scenarios. Nil means cumulative cash flow never turns non-negative.
	BreakevenYear  *float64 `json:"breakeven_year"`
	FirstYearYield float64  `json:"first_year_yield"`

	RiskGrade RiskGrade `json:"risk_grade"`

	SimulationCount int   `json:"simulation_count"`
	Seed            int64 `json:"seed"`

	Parameters config.SimulationConfig `json:"simulation_parameters"`
	Summary    SimulationSummary       `json:"simulation_results"`
}

// Validate enforces the aggregation invariants before a result is persisted.
func (r *RiskResult) Validate() error {
	if r.SimulationCount <= 0 {
		return fmt.Errorf("simulation_count must be positive, got %d", r.SimulationCount)
	}
	if r.VaR5 > r.MeanIRR || r.MeanIRR > r.VaR95 {
		return fmt.Errorf("percentile ordering violated: var_5=%f mean=%f var_95=%f",
			r.VaR5, r.MeanIRR, r.VaR95)
	}
	if r.ProbNegative < 0 || r.ProbNegative > 1 {
		return fmt.Errorf("prob_negative out of range: %f", r.ProbNegative)
	}
	if r.ProbAboveThreshold < 0 || r.ProbAboveThreshold > 1 {
		return fmt.Errorf("prob_above_threshold out of range: %f", r.ProbAboveThreshold)
	}
	if !r.RiskGrade.Valid() {
		return fmt.Errorf("invalid risk grade: %q", r.RiskGrade)
	}
	return nil
}
