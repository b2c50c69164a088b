package models

import "time"

// Property is the risk-relevant projection of a property record. The
// canonical attribute set is owned by the CRM collaborator and read-only
// here; RiskGrade and LastRiskAssessment are the only fields this engine is
// permitted to write, denormalized for fast grade filtering.
type Property struct {
	ID string `json:"id"`

	AcquisitionPrice     float64 `json:"acquisition_price"`
	SizeSqft             float64 `json:"size_sqft"`
	ADR                  float64 `json:"adr"` // average daily rate
	OccupancyRate        float64 `json:"occupancy_rate"`
	ServiceChargePerSqft float64 `json:"service_charge_per_sqft"`
	DeveloperRiskScore   float64 `json:"developer_risk_score"`

	RiskGrade          *RiskGrade `json:"risk_grade"`
	LastRiskAssessment *time.Time `json:"last_risk_assessment"`
}

// GrossAnnualRent is the base-year gross rental income: ADR x 365 x
// occupancy. The same formula the proposal pipeline uses for static
// estimates, applied here as the rent path's base value.
func (p *Property) GrossAnnualRent() float64 {
	return p.ADR * 365 * p.OccupancyRate
}

// AnnualServiceCharge is the yearly service charge for the whole unit.
func (p *Property) AnnualServiceCharge() float64 {
	return p.ServiceChargePerSqft * p.SizeSqft
}
