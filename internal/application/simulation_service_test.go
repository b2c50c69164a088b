package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/urbanyield/riskengine/internal/application"
	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/pkg/errors"
	"github.com/urbanyield/riskengine/pkg/logger"
)

func testSimulationConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Scenarios:         200,
		HorizonYears:      10,
		Seed:              42,
		PriceGrowthMean:   0.02,
		PriceGrowthStd:    0.10,
		RentGrowthMean:    0.02,
		RentGrowthStd:     0.05,
		RentGrowthCap:     0.08,
		BaseInterestRate:  0.04,
		RateShocks:        []float64{-0.01, 0, 0.01, 0.02},
		RateShockProbs:    []float64{0.2, 0.4, 0.3, 0.1},
		IRRTarget:         0.12,
		ManagementFeeRate: 0.05,
		SellingCostRate:   0.02,
		LoanRatio:         0.5,
		HistogramBins:     20,
		Workers:           4,
		BatchConcurrency:  2,
	}
}

func testProperty(id string) *models.Property {
	return &models.Property{
		ID:                   id,
		AcquisitionPrice:     1_000_000,
		SizeSqft:             800,
		ADR:                  500,
		OccupancyRate:        0.75,
		ServiceChargePerSqft: 18,
	}
}

type simulationFixture struct {
	svc          application.SimulationService
	propertyRepo *mockPropertyRepo
	resultRepo   *mockResultRepo
	historyRepo  *mockHistoryRepo
	notifier     *fakeNotifier
}

func newSimulationFixture() *simulationFixture {
	f := &simulationFixture{
		propertyRepo: &mockPropertyRepo{},
		resultRepo:   &mockResultRepo{},
		historyRepo:  &mockHistoryRepo{},
		notifier:     &fakeNotifier{},
	}
	log := logger.NewNoopLogger()
	grading := application.NewGradingService(
		testGradingConfig(), 0.12,
		f.propertyRepo, f.resultRepo, f.historyRepo,
		fakeTxManager{}, f.notifier, nil, log,
	)
	f.svc = application.NewSimulationService(
		testSimulationConfig(),
		f.propertyRepo, f.resultRepo, fakeTxManager{},
		grading, nil, nil, nil, nil, log,
	)
	return f
}

func TestRunSimulation_PersistsValidResult(t *testing.T) {
	f := newSimulationFixture()
	f.propertyRepo.On("GetProperty", mock.Anything, "prop-1").Return(testProperty("prop-1"), nil).Once()

	var saved *models.RiskResult
	f.resultRepo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.RiskResult)
		}).Return(nil).Once()
	f.propertyRepo.On("UpdateRiskFields", mock.Anything, "prop-1", mock.Anything, mock.Anything).Return(nil).Once()
	// First assessment: the transition from no grade is always recorded.
	f.historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	result, err := f.svc.RunSimulation(context.Background(), "prop-1")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Same(t, result, saved)

	assert.Equal(t, "prop-1", result.PropertyID)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 200, result.SimulationCount)
	assert.Equal(t, int64(42), result.Seed)
	assert.Equal(t, int64(42), result.Parameters.Seed)

	assert.LessOrEqual(t, result.VaR5, result.MeanIRR)
	assert.LessOrEqual(t, result.MeanIRR, result.VaR95)
	assert.GreaterOrEqual(t, result.ProbNegative, 0.0)
	assert.LessOrEqual(t, result.ProbNegative, 1.0)
	assert.GreaterOrEqual(t, result.ProbAboveThreshold, 0.0)
	assert.LessOrEqual(t, result.ProbAboveThreshold, 1.0)
	assert.True(t, result.RiskGrade.Valid())
	assert.Greater(t, result.FirstYearYield, 0.0)

	require.Len(t, result.Summary.Histogram, 20)
	var binned int
	for _, c := range result.Summary.Histogram {
		binned += c
	}
	assert.Equal(t, result.SimulationCount-result.Summary.SolverFailures, binned)
	assert.Contains(t, result.Summary.Percentiles, "p50")

	require.Len(t, f.notifier.events, 1)
	assert.False(t, f.notifier.events[0].TriggeredAlert, "first assessment never alerts")

	f.propertyRepo.AssertExpectations(t)
	f.resultRepo.AssertExpectations(t)
	f.historyRepo.AssertExpectations(t)
}

func TestRunSimulation_Deterministic(t *testing.T) {
	run := func() *models.RiskResult {
		f := newSimulationFixture()
		f.propertyRepo.On("GetProperty", mock.Anything, "prop-1").Return(testProperty("prop-1"), nil)
		f.resultRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.propertyRepo.On("UpdateRiskFields", mock.Anything, "prop-1", mock.Anything, mock.Anything).Return(nil)
		f.historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		result, err := f.svc.RunSimulation(context.Background(), "prop-1")
		require.NoError(t, err)
		return result
	}

	first, second := run(), run()
	assert.Equal(t, first.MeanIRR, second.MeanIRR)
	assert.Equal(t, first.VaR5, second.VaR5)
	assert.Equal(t, first.VaR95, second.VaR95)
	assert.Equal(t, first.ProbNegative, second.ProbNegative)
	assert.Equal(t, first.Summary.Histogram, second.Summary.Histogram)
}

func TestRunSimulation_PropertyNotFound(t *testing.T) {
	f := newSimulationFixture()
	f.propertyRepo.On("GetProperty", mock.Anything, "missing").Return(nil, nil).Once()

	_, err := f.svc.RunSimulation(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	f.resultRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRunBatchSimulation_IsolatesFailures(t *testing.T) {
	f := newSimulationFixture()
	for _, id := range []string{"prop-1", "prop-2"} {
		f.propertyRepo.On("GetProperty", mock.Anything, id).Return(testProperty(id), nil)
	}
	f.propertyRepo.On("GetProperty", mock.Anything, "missing").Return(nil, nil)
	f.resultRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.propertyRepo.On("UpdateRiskFields", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := f.svc.RunBatchSimulation(context.Background(), []string{"prop-1", "missing", "prop-2"})
	require.NoError(t, err)

	assert.Equal(t, application.BatchStatusSuccess, report.Status)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	require.Len(t, report.Results, 3)

	assert.Equal(t, application.PropertyRunSucceeded, report.Results[0].Status)
	assert.NotEmpty(t, report.Results[0].ResultID)
	assert.Equal(t, application.PropertyRunFailed, report.Results[1].Status)
	assert.NotEmpty(t, report.Results[1].Error)
	assert.Equal(t, application.PropertyRunSucceeded, report.Results[2].Status)
}

func TestGetRiskResult(t *testing.T) {
	f := newSimulationFixture()
	stored := gradedResult("prop-1", models.GradeAmber)
	f.resultRepo.On("LatestByProperty", mock.Anything, "prop-1").Return(stored, nil).Once()

	result, err := f.svc.GetRiskResult(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Same(t, stored, result)
}

func TestGetRiskResult_NotFound(t *testing.T) {
	f := newSimulationFixture()
	f.resultRepo.On("LatestByProperty", mock.Anything, "prop-1").Return(nil, nil).Once()

	_, err := f.svc.GetRiskResult(context.Background(), "prop-1")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
