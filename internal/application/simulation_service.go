// Package application wires the domain services into the engine's three
// public operations: running simulations, composing risk grades, and
// exporting simulation data.
package application

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/internal/domain/models"
	"github.com/urbanyield/riskengine/internal/domain/repository"
	"github.com/urbanyield/riskengine/internal/domain/service"
	"github.com/urbanyield/riskengine/pkg/errors"
	"github.com/urbanyield/riskengine/pkg/logger"
)

// fallbackBaseRate is used when neither config nor market metrics supply an
// interest-rate baseline.
const fallbackBaseRate = 0.04

// BatchStatus values. A batch that executed is a success regardless of
// per-property outcomes; individual failures are data, not batch failures.
const (
	BatchStatusSuccess = "success"

	PropertyRunSucceeded = "succeeded"
	PropertyRunFailed    = "failed"
)

// PropertyRunReport is the per-property outcome of a batch run.
type PropertyRunReport struct {
	PropertyID string `json:"property_id"`
	Status     string `json:"status"`
	ResultID   string `json:"result_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchReport summarizes one batch simulation.
type BatchReport struct {
	Status       string              `json:"status"`
	Attempted    int                 `json:"attempted"`
	SuccessCount int                 `json:"success_count"`
	FailureCount int                 `json:"failure_count"`
	Results      []PropertyRunReport `json:"results"`
}

// ResultCache is the optional read-side cache of the latest result per
// property. Implementations must degrade silently; a cache miss or failure
// falls through to the repository.
type ResultCache interface {
	GetLatest(ctx context.Context, propertyID string) (*models.RiskResult, bool)
	SetLatest(ctx context.Context, result *models.RiskResult)
}

// RunnerMetrics receives simulation telemetry.
type RunnerMetrics interface {
	ObserveRun(status string, seconds float64)
	AddScenarios(n int)
	AddSolverFailures(n int)
}

// SimulationService drives Monte Carlo runs. An external scheduler or the
// HTTP layer invokes it through this stable contract; the engine has no
// dependency on any particular queue or broker.
type SimulationService interface {
	// RunSimulation executes one full run for a property and persists the
	// result, property risk fields and any grade transition atomically.
	RunSimulation(ctx context.Context, propertyID string) (*models.RiskResult, error)

	// RunBatchSimulation runs each property independently; one property's
	// failure never aborts the batch.
	RunBatchSimulation(ctx context.Context, propertyIDs []string) (*BatchReport, error)

	// GetRiskResult returns the most recent result for a property.
	GetRiskResult(ctx context.Context, propertyID string) (*models.RiskResult, error)
}

type simulationService struct {
	cfg          config.SimulationConfig
	propertyRepo repository.PropertyRepository
	resultRepo   repository.RiskResultRepository
	tx           repository.TxManager
	grading      GradingService
	baseline     service.BaselineProvider
	vectorIndex  service.VectorIndexUpdater
	cache        ResultCache
	metrics      RunnerMetrics
	log          logger.Logger
}

// NewSimulationService creates the Monte Carlo runner. cache, vectorIndex
// and metrics may be nil.
func NewSimulationService(
	cfg config.SimulationConfig,
	propertyRepo repository.PropertyRepository,
	resultRepo repository.RiskResultRepository,
	tx repository.TxManager,
	grading GradingService,
	baseline service.BaselineProvider,
	vectorIndex service.VectorIndexUpdater,
	cache ResultCache,
	metrics RunnerMetrics,
	log logger.Logger,
) SimulationService {
	return &simulationService{
		cfg:          cfg,
		propertyRepo: propertyRepo,
		resultRepo:   resultRepo,
		tx:           tx,
		grading:      grading,
		baseline:     baseline,
		vectorIndex:  vectorIndex,
		cache:        cache,
		metrics:      metrics,
		log:          log.WithComponent("SimulationService"),
	}
}

func (s *simulationService) RunSimulation(ctx context.Context, propertyID string) (*models.RiskResult, error) {
	started := time.Now()
	result, err := s.runSimulation(ctx, propertyID)
	if s.metrics != nil {
		status := PropertyRunSucceeded
		if err != nil {
			status = PropertyRunFailed
		}
		s.metrics.ObserveRun(status, time.Since(started).Seconds())
	}
	return result, err
}

func (s *simulationService) runSimulation(ctx context.Context, propertyID string) (*models.RiskResult, error) {
	property, err := s.propertyRepo.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrPersistence("loading property").WithError(err)
	}
	if property == nil {
		return nil, errors.ErrPropertyNotFound(propertyID)
	}

	baseRate, rentFactor, err := s.resolveBaselines(ctx)
	if err != nil {
		return nil, err
	}

	basePrice := property.AcquisitionPrice
	baseRent := property.GrossAnnualRent() * rentFactor

	generator, err := service.NewScenarioGenerator(s.cfg)
	if err != nil {
		return nil, err
	}
	scenarios, err := generator.Generate(basePrice, baseRent, baseRate)
	if err != nil {
		return nil, err
	}

	econ := service.PropertyEconomics{
		AcquisitionPrice:    property.AcquisitionPrice,
		AnnualServiceCharge: property.AnnualServiceCharge(),
		ManagementFeeRate:   s.cfg.ManagementFeeRate,
		SellingCostRate:     s.cfg.SellingCostRate,
		LoanRatio:           s.cfg.LoanRatio,
	}

	irrs, breakevens, signs := s.solveScenarios(ctx, econ, scenarios)
	if s.metrics != nil {
		s.metrics.AddScenarios(scenarios.Scenarios())
	}

	result, err := s.aggregate(property, econ, scenarios, irrs, breakevens, signs, baseRent, baseRate)
	if err != nil {
		return nil, err
	}

	grade := s.grading.DeriveGrade(result)
	result.RiskGrade = grade
	if err := result.Validate(); err != nil {
		return nil, errors.ErrInternal("risk result failed invariant check").WithError(err)
	}

	var event *models.GradeTransitionEvent
	err = s.tx.InTransaction(ctx, func(txCtx context.Context) error {
		if err := s.resultRepo.Save(txCtx, result); err != nil {
			return err
		}
		if err := s.propertyRepo.UpdateRiskFields(txCtx, property.ID, grade, result.RunAt); err != nil {
			return err
		}
		event, err = s.grading.RecordTransition(txCtx, property, result)
		return err
	})
	if err != nil {
		return nil, errors.ErrPersistence("simulation run could not commit").WithError(err)
	}

	s.afterCommit(ctx, property, result, event)

	s.log.Info(ctx, "simulation run persisted", logger.Fields{
		"property_id": property.ID,
		"result_id":   result.ID,
		"mean_irr":    result.MeanIRR,
		"grade":       string(grade),
		"scenarios":   result.SimulationCount,
		"seed":        result.Seed,
	})
	return result, nil
}

// resolveBaselines fills unset priors from the market-metric series.
func (s *simulationService) resolveBaselines(ctx context.Context) (baseRate, rentFactor float64, err error) {
	baseRate = s.cfg.BaseInterestRate
	rentFactor = 1.0
	if s.baseline == nil {
		if baseRate <= 0 {
			baseRate = fallbackBaseRate
		}
		return baseRate, rentFactor, nil
	}
	if baseRate <= 0 {
		baseRate, err = s.baseline.BaseInterestRate(ctx, fallbackBaseRate)
		if err != nil {
			return 0, 0, errors.ErrPersistence("loading interest-rate baseline").WithError(err)
		}
	}
	rentFactor, err = s.baseline.RentIndexFactor(ctx)
	if err != nil {
		return 0, 0, errors.ErrPersistence("loading rent index").WithError(err)
	}
	return baseRate, rentFactor, nil
}

// solveScenarios projects and solves every scenario. The loop has no
// cross-scenario dependency, so it is split across workers; per-scenario
// solver failures surface as NaN entries, never as errors.
func (s *simulationService) solveScenarios(ctx context.Context, econ service.PropertyEconomics,
	scenarios *service.ScenarioSet) (irrs, breakevens []float64, signs []int) {

	n := scenarios.Scenarios()
	irrs = make([]float64, n)
	breakevens = make([]float64, n)
	signs = make([]int, n)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := w; i < n; i += workers {
				flows := service.ProjectCashFlows(econ,
					scenarios.PricePaths[i], scenarios.RentPaths[i], scenarios.Rates[i])
				irrs[i] = service.SolveIRR(flows)
				breakevens[i] = service.BreakevenYear(flows)
				if !service.IRRDefined(irrs[i]) {
					signs[i] = service.InferIRRSign(flows)
				}
			}
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()
	return irrs, breakevens, signs
}

// aggregate reduces per-scenario outcomes to the persisted statistics.
// Converged scenarios drive mean/percentiles/prob_above_threshold;
// prob_negative additionally counts failed scenarios with an inferable sign,
// and scenarios with no inferable sign are excluded everywhere.
func (s *simulationService) aggregate(property *models.Property, econ service.PropertyEconomics,
	scenarios *service.ScenarioSet, irrs, breakevens []float64, signs []int,
	baseRent, baseRate float64) (*models.RiskResult, error) {

	valid := make([]float64, 0, len(irrs))
	var negValid, above, inferredNeg, inferredPos, noSign int
	for i, irr := range irrs {
		if service.IRRDefined(irr) {
			valid = append(valid, irr)
			if irr < 0 {
				negValid++
			}
			if irr > s.cfg.IRRTarget {
				above++
			}
			continue
		}
		switch signs[i] {
		case -1:
			inferredNeg++
		case 1:
			inferredPos++
		default:
			noSign++
		}
	}

	if len(valid) == 0 {
		return nil, errors.ErrNumericFailure("IRR solver failed for every scenario")
	}
	solverFailures := len(irrs) - len(valid)
	if solverFailures > 0 && s.metrics != nil {
		s.metrics.AddSolverFailures(solverFailures)
	}

	sort.Float64s(valid)
	p5 := service.Percentile(valid, 5)
	p95 := service.Percentile(valid, 95)

	signDenom := len(valid) + inferredNeg + inferredPos
	probNegative := float64(negValid+inferredNeg) / float64(signDenom)
	probAbove := float64(above) / float64(len(valid))

	var breakeven *float64
	if med := service.Median(breakevens); !math.IsInf(med, 1) && !math.IsNaN(med) {
		breakeven = &med
	}

	firstYearYield := service.FirstYearNetIncome(econ, baseRent, baseRate) / econ.AcquisitionPrice

	params := s.cfg
	params.Seed = scenarios.Seed

	return &models.RiskResult{
		ID:                 uuid.NewString(),
		PropertyID:         property.ID,
		RunAt:              time.Now().UTC(),
		MeanIRR:            service.Mean(valid),
		VaR5:               p5,
		VaR95:              p95,
		ProbNegative:       probNegative,
		ProbAboveThreshold: probAbove,
		BreakevenYear:      breakeven,
		FirstYearYield:     firstYearYield,
		SimulationCount:    len(irrs),
		Seed:               scenarios.Seed,
		Parameters:         params,
		Summary: models.SimulationSummary{
			Percentiles: map[string]float64{
				"p5":  p5,
				"p25": service.Percentile(valid, 25),
				"p50": service.Percentile(valid, 50),
				"p75": service.Percentile(valid, 75),
				"p95": p95,
			},
			Histogram:      service.BuildIRRHistogram(valid, p5, p95, s.cfg.HistogramBins),
			SolverFailures: solverFailures,
			InferredSign:   inferredNeg + inferredPos,
			ExcludedNoSign: noSign,
		},
	}, nil
}

// afterCommit performs the fire-and-forget integrations. None of these may
// roll back the persisted result.
func (s *simulationService) afterCommit(ctx context.Context, property *models.Property,
	result *models.RiskResult, event *models.GradeTransitionEvent) {

	if s.cache != nil {
		s.cache.SetLatest(ctx, result)
	}
	if event != nil {
		s.grading.NotifyTransition(ctx, event)
	}
	if s.vectorIndex != nil {
		if err := s.vectorIndex.UpdateRiskMetadata(ctx, property, result); err != nil {
			s.log.Warn(ctx, "vector index update failed", logger.Fields{
				"property_id": property.ID,
				"error":       err.Error(),
			})
		}
	}
}

func (s *simulationService) RunBatchSimulation(ctx context.Context, propertyIDs []string) (*BatchReport, error) {
	report := &BatchReport{
		Status:    BatchStatusSuccess,
		Attempted: len(propertyIDs),
		Results:   make([]PropertyRunReport, len(propertyIDs)),
	}

	concurrency := s.cfg.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for idx, id := range propertyIDs {
		idx, id := idx, id
		g.Go(func() error {
			entry := PropertyRunReport{PropertyID: id, Status: PropertyRunSucceeded}
			result, err := s.RunSimulation(gctx, id)
			if err != nil {
				entry.Status = PropertyRunFailed
				entry.Error = err.Error()
				s.log.Warn(gctx, "batch property run failed", logger.Fields{
					"property_id": id,
					"error":       err.Error(),
				})
			} else {
				entry.ResultID = result.ID
			}
			mu.Lock()
			report.Results[idx] = entry
			if err != nil {
				report.FailureCount++
			} else {
				report.SuccessCount++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info(ctx, "batch simulation finished", logger.Fields{
		"attempted": report.Attempted,
		"succeeded": report.SuccessCount,
		"failed":    report.FailureCount,
	})
	return report, nil
}

func (s *simulationService) GetRiskResult(ctx context.Context, propertyID string) (*models.RiskResult, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetLatest(ctx, propertyID); ok {
			return cached, nil
		}
	}
	result, err := s.resultRepo.LatestByProperty(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrPersistence("loading risk result").WithError(err)
	}
	if result == nil {
		return nil, errors.ErrRiskResultNotFound(propertyID)
	}
	if s.cache != nil {
		s.cache.SetLatest(ctx, result)
	}
	return result, nil
}
