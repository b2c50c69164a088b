package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics of the risk engine.
type Metrics struct {
	SimulationRuns     *prometheus.CounterVec
	SimulationDuration *prometheus.HistogramVec
	ScenariosSimulated prometheus.Counter
	SolverFailures     prometheus.Counter
	GradeTransitions   *prometheus.CounterVec
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SimulationRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_simulation_runs_total",
				Help: "Total number of simulation runs by outcome.",
			},
			[]string{"status"},
		),
		SimulationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "risk_simulation_duration_seconds",
				Help:    "Wall-clock duration of simulation runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		ScenariosSimulated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "risk_scenarios_simulated_total",
				Help: "Total number of scenarios projected and solved.",
			},
		),
		SolverFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "risk_irr_solver_failures_total",
				Help: "Scenarios where no IRR root could be bracketed.",
			},
		),
		GradeTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "risk_grade_transitions_total",
				Help: "Grade transitions by old and new grade.",
			},
			[]string{"old_grade", "new_grade"},
		),
	}
}

// ObserveRun implements application.RunnerMetrics.
func (m *Metrics) ObserveRun(status string, seconds float64) {
	m.SimulationRuns.WithLabelValues(status).Inc()
	m.SimulationDuration.WithLabelValues(status).Observe(seconds)
}

// AddScenarios implements application.RunnerMetrics.
func (m *Metrics) AddScenarios(n int) {
	m.ScenariosSimulated.Add(float64(n))
}

// AddSolverFailures implements application.RunnerMetrics.
func (m *Metrics) AddSolverFailures(n int) {
	m.SolverFailures.Add(float64(n))
}

// IncTransition implements application.GradeMetrics.
func (m *Metrics) IncTransition(oldGrade, newGrade string) {
	m.GradeTransitions.WithLabelValues(oldGrade, newGrade).Inc()
}
