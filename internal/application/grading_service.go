package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/repository"
	"github.com/urbanyield/riskengine/internal/domain/service"
	"github.com/urbanyield/riskengine/pkg/errors"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// GradeMetrics receives grade transition telemetry.
type GradeMetrics interface {
	IncTransition(oldGrade, newGrade string)
}

// GradeAssessment is the outcome of a standalone grade computation.
type GradeAssessment struct {
	PropertyID string                       `json:"property_id"`
	Grade      models.RiskGrade             `json:"grade"`
	Changed    bool                         `json:"changed"`
	Event      *models.GradeTransitionEvent `json:"event,omitempty"`
}

// GradingService maps simulation statistics to RED/AMBER/GREEN, tracks
// transitions, and serves the read-only grade queries.
type GradingService interface {
	// DeriveGrade maps aggregated statistics to a grade. Pure.
	DeriveGrade(result *models.RiskResult) models.RiskGrade

	// RecordTransition compares the derived grade against the property's
	// recorded grade and appends a history row when they differ. It joins
	// the ambient transaction; the returned event is nil when unchanged.
	RecordTransition(ctx context.Context, property *models.Property, result *models.RiskResult) (*models.GradeTransitionEvent, error)

	// NotifyTransition hands a committed transition to the external
	// notifier. Failures are logged only.
	NotifyTransition(ctx context.Context, event *models.GradeTransitionEvent)

	// ComputeRiskGrade re-derives the grade from the latest persisted
	// result and records any transition in its own transaction.
	ComputeRiskGrade(ctx context.Context, propertyID string) (*GradeAssessment, error)

	// GradeDistribution counts properties per grade. Pure read.
	GradeDistribution(ctx context.Context) (map[models.RiskGrade]int64, error)

	// GradeHistory returns the transition history for a property. Pure read.
	GradeHistory(ctx context.Context, propertyID string) ([]models.RiskGradeHistory, error)

	// PropertiesAtGrade lists properties currently at a grade. Pure read.
	PropertiesAtGrade(ctx context.Context, grade models.RiskGrade) ([]models.Property, error)
}

type gradingService struct {
	cfg          config.GradingConfig
	irrTarget    float64
	propertyRepo repository.PropertyRepository
	resultRepo   repository.RiskResultRepository
	historyRepo  repository.GradeHistoryRepository
	tx           repository.TxManager
	notifier     service.TransitionNotifier
	metrics      GradeMetrics
	log          logger.Logger
}

// NewGradingService creates the composer. notifier and metrics may be nil.
func NewGradingService(
	cfg config.GradingConfig,
	irrTarget float64,
	propertyRepo repository.PropertyRepository,
	resultRepo repository.RiskResultRepository,
	historyRepo repository.GradeHistoryRepository,
	tx repository.TxManager,
	notifier service.TransitionNotifier,
	metrics GradeMetrics,
	log logger.Logger,
) GradingService {
	return &gradingService{
		cfg:          cfg,
		irrTarget:    irrTarget,
		propertyRepo: propertyRepo,
		resultRepo:   resultRepo,
		historyRepo:  historyRepo,
		tx:           tx,
		notifier:     notifier,
		metrics:      metrics,
		log:          log.WithComponent("GradingService"),
	}
}

// DeriveGrade applies the configured policy thresholds. RED is checked
// first so the bands cannot overlap: high downside probability or a
// materially negative expectation dominates any upside.
func (s *gradingService) DeriveGrade(result *models.RiskResult) models.RiskGrade {
	switch {
	case result.ProbNegative >= s.cfg.RedMinProbNegative || result.MeanIRR <= s.cfg.RedMaxMeanIRR:
		return models.GradeRed
	case result.ProbNegative <= s.cfg.GreenMaxProbNegative && result.MeanIRR >= s.cfg.GreenMinMeanIRR:
		return models.GradeGreen
	default:
		return models.GradeAmber
	}
}

func (s *gradingService) RecordTransition(ctx context.Context, property *models.Property,
	result *models.RiskResult) (*models.GradeTransitionEvent, error) {

	newGrade := result.RiskGrade
	oldGrade := property.RiskGrade
	if oldGrade != nil && *oldGrade == newGrade {
		return nil, nil
	}

	triggeredAlert := newGrade.WorseThan(oldGrade)
	triggeredReprice := newGrade == models.GradeRed && (oldGrade == nil || *oldGrade != models.GradeRed)

	row := &models.RiskGradeHistory{
		ID:               uuid.NewString(),
		PropertyID:       property.ID,
		OldGrade:         oldGrade,
		NewGrade:         newGrade,
		ChangedAt:        result.RunAt,
		Reason:           s.transitionReason(result),
		TriggeredAlert:   triggeredAlert,
		TriggeredReprice: triggeredReprice,
	}
	if err := s.historyRepo.Append(ctx, row); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		from := "none"
		if oldGrade != nil {
			from = string(*oldGrade)
		}
		s.metrics.IncTransition(from, string(newGrade))
	}

	return &models.GradeTransitionEvent{
		PropertyID:       property.ID,
		OldGrade:         oldGrade,
		NewGrade:         newGrade,
		TriggeredAlert:   triggeredAlert,
		TriggeredReprice: triggeredReprice,
		OccurredAt:       row.ChangedAt,
	}, nil
}

// transitionReason renders the statistics that drove the decision.
func (s *gradingService) transitionReason(result *models.RiskResult) string {
	return fmt.Sprintf("mean IRR %.4f (target %.2f), P(IRR<0) %.4f over %d scenarios",
		result.MeanIRR, s.irrTarget, result.ProbNegative, result.SimulationCount)
}

func (s *gradingService) NotifyTransition(ctx context.Context, event *models.GradeTransitionEvent) {
	if s.notifier == nil || event == nil {
		return
	}
	if err := s.notifier.PublishTransition(ctx, *event); err != nil {
		s.log.Warn(ctx, "transition notification failed", logger.Fields{
			"property_id": event.PropertyID,
			"new_grade":   string(event.NewGrade),
			"error":       err.Error(),
		})
	}
}

func (s *gradingService) ComputeRiskGrade(ctx context.Context, propertyID string) (*GradeAssessment, error) {
	result, err := s.resultRepo.LatestByProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrPersistence("loading risk result").WithError(err)
	}
	if result == nil {
		return nil, errors.ErrRiskResultNotFound(propertyID)
	}

	property, err := s.propertyRepo.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrPersistence("loading property").WithError(err)
	}
	if property == nil {
		return nil, errors.ErrPropertyNotFound(propertyID)
	}

	grade := s.DeriveGrade(result)
	graded := *result
	graded.RiskGrade = grade

	var event *models.GradeTransitionEvent
	err = s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := s.propertyRepo.UpdateRiskFields(txCtx, property.ID, grade, time.Now().UTC()); err != nil {
			return err
		}
		event, err = s.RecordTransition(txCtx, property, &graded)
		return err
	})
	if err != nil {
		return nil, errors.ErrPersistence("grade computation could not commit").WithError(err)
	}

	s.NotifyTransition(ctx, event)

	return &GradeAssessment{
		PropertyID: propertyID,
		Grade:      grade,
		Changed:    event != nil,
		Event:      event,
	}, nil
}

func (s *gradingService) GradeDistribution(ctx context.Context) (map[models.RiskGrade]int64, error) {
	dist, err := s.propertyRepo.GradeDistribution(ctx)
	if err != nil {
		return nil, errors.ErrPersistence("loading grade distribution").WithError(err)
	}
	// Report all three grades even when empty.
	for _, g := range models.AllGrades() {
		if _, ok := dist[g]; !ok {
			dist[g] = 0
		}
	}
	return dist, nil
}

func (s *gradingService) GradeHistory(ctx context.Context, propertyID string) ([]models.RiskGradeHistory, error) {
	rows, err := s.historyRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrPersistence("loading grade history").WithError(err)
	}
	return rows, nil
}

func (s *gradingService) PropertiesAtGrade(ctx context.Context, grade models.RiskGrade) ([]models.Property, error) {
	if !grade.Valid() {
		return nil, errors.ErrInvalidRequest(fmt.Sprintf("invalid risk grade: %q", grade))
	}
	props, err := s.propertyRepo.ListByGrade(ctx, grade)
	if err != nil {
		return nil, errors.ErrPersistence("listing properties by grade").WithError(err)
	}
	return props, nil
}
