package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanyield/riskengine/internal/domain/service"
)

func TestSolveIRR_ProfitableInvestment(t *testing.T) {
	flows := []float64{-1000, 200, 200, 200, 200, 800}
	irr := service.SolveIRR(flows)

	require.True(t, service.IRRDefined(irr))
	assert.Greater(t, irr, 0.10)
	assert.Less(t, irr, 0.15)
	// The solution is a root of the NPV function.
	assert.InDelta(t, 0, service.NPV(irr, flows), 1e-3)
}

func TestSolveIRR_LossMakingInvestment(t *testing.T) {
	flows := []float64{-1000, 100, 100, 100, 100, 400}
	irr := service.SolveIRR(flows)

	require.True(t, service.IRRDefined(irr))
	assert.Less(t, irr, 0.0)
	assert.Greater(t, irr, -1.0)
}

func TestSolveIRR_NoRoot(t *testing.T) {
	// All-positive flows have no sign change and no IRR.
	irr := service.SolveIRR([]float64{100, 100, 100})
	assert.False(t, service.IRRDefined(irr))
}

func TestInferIRRSign(t *testing.T) {
	assert.Equal(t, -1, service.InferIRRSign([]float64{-1000, 100, 100, 100, 100, 400}))
	assert.Equal(t, 1, service.InferIRRSign([]float64{-1000, 500, 500, 500}))
	// No sign change: unknowable.
	assert.Equal(t, 0, service.InferIRRSign([]float64{100, 100, 100}))
	// Multiple sign changes: unknowable.
	assert.Equal(t, 0, service.InferIRRSign([]float64{-100, 300, -300, 200}))
}

func TestBreakevenYear_Interpolated(t *testing.T) {
	// Cumulative: -1000, -800, -600, 100, 300, 500.
	flows := []float64{-1000, 200, 200, 700, 200, 200}
	be := service.BreakevenYear(flows)

	assert.Greater(t, be, 2.0)
	assert.Less(t, be, 3.0)
	assert.InDelta(t, 2.0+600.0/700.0, be, 1e-9)
}

func TestBreakevenYear_NeverRecovers(t *testing.T) {
	flows := []float64{-1000, -100, -100, -100}
	assert.True(t, math.IsInf(service.BreakevenYear(flows), 1))
}

func TestBreakevenYear_ImmediatelyPositive(t *testing.T) {
	assert.Equal(t, 0.0, service.BreakevenYear([]float64{100, 200, 300}))
}

func TestNPV_ZeroRateIsSum(t *testing.T) {
	flows := []float64{-1000, 300, 300, 300}
	assert.InDelta(t, -100, service.NPV(0, flows), 1e-9)
}
