package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/urbanyield/riskengine/internal/application"
	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/pkg/logger"
)

func testGradingConfig() config.GradingConfig {
	return config.GradingConfig{
		GreenMaxProbNegative: 0.05,
		GreenMinMeanIRR:      0.12,
		RedMinProbNegative:   0.35,
		RedMaxMeanIRR:        -0.05,
	}
}

type gradingFixture struct {
	svc          application.GradingService
	propertyRepo *mockPropertyRepo
	resultRepo   *mockResultRepo
	historyRepo  *mockHistoryRepo
	notifier     *fakeNotifier
}

func newGradingFixture() *gradingFixture {
	f := &gradingFixture{
		propertyRepo: &mockPropertyRepo{},
		resultRepo:   &mockResultRepo{},
		historyRepo:  &mockHistoryRepo{},
		notifier:     &fakeNotifier{},
	}
	f.svc = application.NewGradingService(
		testGradingConfig(), 0.12,
		f.propertyRepo, f.resultRepo, f.historyRepo,
		fakeTxManager{}, f.notifier, nil, logger.NewNoopLogger(),
	)
	return f
}

func TestDeriveGrade_Policy(t *testing.T) {
	svc := newGradingFixture().svc

	cases := []struct {
		name         string
		meanIRR      float64
		probNegative float64
		want         models.RiskGrade
	}{
		{"strong upside low downside", 0.15, 0.01, models.GradeGreen},
		{"green boundary inclusive", 0.12, 0.05, models.GradeGreen},
		{"good mean but too risky for green", 0.15, 0.10, models.GradeAmber},
		{"safe but weak mean", 0.08, 0.01, models.GradeAmber},
		{"high downside probability", 0.15, 0.35, models.GradeRed},
		{"deeply negative expectation", -0.05, 0.01, models.GradeRed},
		{"red dominates green conditions", 0.20, 0.40, models.GradeRed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.DeriveGrade(&models.RiskResult{
				MeanIRR:      tc.meanIRR,
				ProbNegative: tc.probNegative,
			})
			assert.Equal(t, tc.want, got)
		})
	}
}

func gradedResult(propertyID string, grade models.RiskGrade) *models.RiskResult {
	return &models.RiskResult{
		ID:              "res-1",
		PropertyID:      propertyID,
		RunAt:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		MeanIRR:         0.10,
		VaR5:            0.02,
		VaR95:           0.18,
		ProbNegative:    0.10,
		RiskGrade:       grade,
		SimulationCount: 5000,
	}
}

func TestRecordTransition_AppendsRowOnChange(t *testing.T) {
	f := newGradingFixture()
	old := models.GradeGreen
	property := &models.Property{ID: "prop-1", RiskGrade: &old}
	result := gradedResult("prop-1", models.GradeAmber)

	var captured *models.RiskGradeHistory
	f.historyRepo.On("Append", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*models.RiskGradeHistory)
		}).Return(nil).Once()

	event, err := f.svc.RecordTransition(context.Background(), property, result)
	require.NoError(t, err)
	require.NotNil(t, event)

	f.historyRepo.AssertExpectations(t)
	require.NotNil(t, captured)
	assert.Equal(t, "prop-1", captured.PropertyID)
	require.NotNil(t, captured.OldGrade)
	assert.Equal(t, models.GradeGreen, *captured.OldGrade)
	assert.Equal(t, models.GradeAmber, captured.NewGrade)
	assert.Equal(t, result.RunAt, captured.ChangedAt)
	assert.NotEmpty(t, captured.Reason)

	assert.True(t, event.TriggeredAlert, "worsening must alert")
	assert.False(t, event.TriggeredReprice)
}

func TestRecordTransition_UnchangedGradeIsNoop(t *testing.T) {
	f := newGradingFixture()
	old := models.GradeAmber
	property := &models.Property{ID: "prop-1", RiskGrade: &old}

	event, err := f.svc.RecordTransition(context.Background(), property, gradedResult("prop-1", models.GradeAmber))
	require.NoError(t, err)
	assert.Nil(t, event)
	f.historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRecordTransition_RepriceOnlyOnEnteringRed(t *testing.T) {
	green, amber, red := models.GradeGreen, models.GradeAmber, models.GradeRed

	cases := []struct {
		name        string
		oldGrade    *models.RiskGrade
		newGrade    models.RiskGrade
		wantAlert   bool
		wantReprice bool
	}{
		{"first assessment to red", nil, red, false, true},
		{"first assessment to green", nil, green, false, false},
		{"amber to red", &amber, red, true, true},
		{"red to green", &red, green, false, false},
		{"green to amber", &green, amber, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newGradingFixture()
			f.historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

			property := &models.Property{ID: "prop-1", RiskGrade: tc.oldGrade}
			event, err := f.svc.RecordTransition(context.Background(), property, gradedResult("prop-1", tc.newGrade))
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, tc.wantAlert, event.TriggeredAlert)
			assert.Equal(t, tc.wantReprice, event.TriggeredReprice)
		})
	}
}

func TestComputeRiskGrade_RecordsAndNotifies(t *testing.T) {
	f := newGradingFixture()
	old := models.GradeGreen
	result := gradedResult("prop-1", "")
	result.ProbNegative = 0.40 // derives RED

	f.resultRepo.On("LatestByProperty", mock.Anything, "prop-1").Return(result, nil).Once()
	f.propertyRepo.On("GetProperty", mock.Anything, "prop-1").
		Return(&models.Property{ID: "prop-1", RiskGrade: &old}, nil).Once()
	f.propertyRepo.On("UpdateRiskFields", mock.Anything, "prop-1", models.GradeRed, mock.Anything).Return(nil).Once()
	f.historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	assessment, err := f.svc.ComputeRiskGrade(context.Background(), "prop-1")
	require.NoError(t, err)
	assert.Equal(t, models.GradeRed, assessment.Grade)
	assert.True(t, assessment.Changed)
	require.Len(t, f.notifier.events, 1)
	assert.True(t, f.notifier.events[0].TriggeredReprice)

	f.propertyRepo.AssertExpectations(t)
	f.resultRepo.AssertExpectations(t)
	f.historyRepo.AssertExpectations(t)
}

func TestComputeRiskGrade_NoResult(t *testing.T) {
	f := newGradingFixture()
	f.resultRepo.On("LatestByProperty", mock.Anything, "missing").Return(nil, nil).Once()

	_, err := f.svc.ComputeRiskGrade(context.Background(), "missing")
	require.Error(t, err)
}

func TestGradeDistribution_FillsAllGrades(t *testing.T) {
	f := newGradingFixture()
	f.propertyRepo.On("GradeDistribution", mock.Anything).
		Return(map[models.RiskGrade]int64{models.GradeGreen: 3}, nil).Once()

	dist, err := f.svc.GradeDistribution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), dist[models.GradeGreen])
	assert.Equal(t, int64(0), dist[models.GradeAmber])
	assert.Equal(t, int64(0), dist[models.GradeRed])
}
