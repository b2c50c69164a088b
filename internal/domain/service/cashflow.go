package service

// PropertyEconomics bundles the per-property inputs of the cash-flow
// projection. Rates come from the simulation config, prices and charges from
// the property record.
type PropertyEconomics struct {
	AcquisitionPrice    float64
	AnnualServiceCharge float64
	ManagementFeeRate   float64
	SellingCostRate     float64
	// LoanRatio is the financed fraction of the acquisition price. Debt is
	// modeled interest-only; no amortization schedule.
	LoanRatio float64
}

// ProjectCashFlows turns one scenario's paths into a yearly cash-flow vector
// of length H+1. Index 0 is the acquisition outflow; years 1..H carry net
// operating income; the final year additionally realizes the sale net of
// selling costs.
func ProjectCashFlows(econ PropertyEconomics, pricePath, rentPath []float64, rate float64) []float64 {
	horizon := len(pricePath) - 1
	flows := make([]float64, horizon+1)
	flows[0] = -econ.AcquisitionPrice

	for t := 1; t <= horizon; t++ {
		flows[t] = netOperatingIncome(econ, rentPath[t], rate)
	}
	flows[horizon] += pricePath[horizon] * (1 - econ.SellingCostRate)

	return flows
}

// netOperatingIncome applies the platform's net-income formula to one year:
// gross rent minus service charges, management fee and financing cost.
func netOperatingIncome(econ PropertyEconomics, grossRent, rate float64) float64 {
	financingCost := econ.AcquisitionPrice * econ.LoanRatio * rate
	return grossRent - econ.AnnualServiceCharge - grossRent*econ.ManagementFeeRate - financingCost
}

// FirstYearNetIncome projects the deterministic base-scenario year-1 net
// income, used for the yield-on-cost statistic.
func FirstYearNetIncome(econ PropertyEconomics, baseRent, baseRate float64) float64 {
	return netOperatingIncome(econ, baseRent, baseRate)
}
