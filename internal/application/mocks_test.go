package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/urbanyield/riskengine/internal/domain/models"
)

type mockPropertyRepo struct {
	mock.Mock
}

func (m *mockPropertyRepo) GetProperty(ctx context.Context, propertyID string) (*models.Property, error) {
	args := m.Called(ctx, propertyID)
	if p := args.Get(0); p != nil {
		return p.(*models.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertyRepo) UpdateRiskFields(ctx context.Context, propertyID string, grade models.RiskGrade, assessedAt time.Time) error {
	return m.Called(ctx, propertyID, grade, assessedAt).Error(0)
}

func (m *mockPropertyRepo) GradeDistribution(ctx context.Context) (map[models.RiskGrade]int64, error) {
	args := m.Called(ctx)
	if d := args.Get(0); d != nil {
		return d.(map[models.RiskGrade]int64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPropertyRepo) ListByGrade(ctx context.Context, grade models.RiskGrade) ([]models.Property, error) {
	args := m.Called(ctx, grade)
	if p := args.Get(0); p != nil {
		return p.([]models.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockResultRepo struct {
	mock.Mock
}

func (m *mockResultRepo) Save(ctx context.Context, result *models.RiskResult) error {
	return m.Called(ctx, result).Error(0)
}

func (m *mockResultRepo) LatestByProperty(ctx context.Context, propertyID string) (*models.RiskResult, error) {
	args := m.Called(ctx, propertyID)
	if r := args.Get(0); r != nil {
		return r.(*models.RiskResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockResultRepo) ListByProperty(ctx context.Context, propertyID string) ([]models.RiskResult, error) {
	args := m.Called(ctx, propertyID)
	if r := args.Get(0); r != nil {
		return r.([]models.RiskResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHistoryRepo struct {
	mock.Mock
}

func (m *mockHistoryRepo) Append(ctx context.Context, row *models.RiskGradeHistory) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockHistoryRepo) ListByProperty(ctx context.Context, propertyID string) ([]models.RiskGradeHistory, error) {
	args := m.Called(ctx, propertyID)
	if r := args.Get(0); r != nil {
		return r.([]models.RiskGradeHistory), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeTxManager runs the callback directly without a database.
type fakeTxManager struct{}

func (fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeNotifier records published transitions. Batch runs publish
// concurrently, so access is locked.
type fakeNotifier struct {
	mu     sync.Mutex
	events []models.GradeTransitionEvent
	err    error
}

func (f *fakeNotifier) PublishTransition(_ context.Context, event models.GradeTransitionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeNotifier) Close() error { return nil }
