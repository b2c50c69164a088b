package config

import (
	"fmt"
	"math"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Grading    GradingConfig    `mapstructure:"grading"`
	Export     ExportConfig     `mapstructure:"export"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	PprofEnabled bool   `mapstructure:"pprof_enabled"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int    `mapstructure:"max_conns"`
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	TransitionTopic string   `mapstructure:"transition_topic"`
	BatchSize       int      `mapstructure:"batch_size"`
	Enabled         bool     `mapstructure:"enabled"`
}

// SimulationConfig carries the full stochastic parameter set of a run. The
// whole struct is persisted with every RiskResult so a run can be reproduced.
type SimulationConfig struct {
	Scenarios    int   `mapstructure:"scenarios" json:"scenarios"`
	HorizonYears int   `mapstructure:"horizon_years" json:"horizon_years"`
	Seed         int64 `mapstructure:"seed" json:"seed"` // 0 means derive from clock

	PriceGrowthMean float64 `mapstructure:"price_growth_mean" json:"price_growth_mean"`
	PriceGrowthStd  float64 `mapstructure:"price_growth_std" json:"price_growth_std"`

	RentGrowthMean float64 `mapstructure:"rent_growth_mean" json:"rent_growth_mean"`
	RentGrowthStd  float64 `mapstructure:"rent_growth_std" json:"rent_growth_std"`
	RentGrowthCap  float64 `mapstructure:"rent_growth_cap" json:"rent_growth_cap"`

	// BaseInterestRate of 0 defers to the market-metric baseline provider.
	BaseInterestRate float64   `mapstructure:"base_interest_rate" json:"base_interest_rate"`
	RateShocks       []float64 `mapstructure:"rate_shocks" json:"rate_shocks"`
	RateShockProbs   []float64 `mapstructure:"rate_shock_probs" json:"rate_shock_probs"`

	IRRTarget         float64 `mapstructure:"irr_target" json:"irr_target"`
	ManagementFeeRate float64 `mapstructure:"management_fee_rate" json:"management_fee_rate"`
	SellingCostRate   float64 `mapstructure:"selling_cost_rate" json:"selling_cost_rate"`
	LoanRatio         float64 `mapstructure:"loan_ratio" json:"loan_ratio"`
	HistogramBins     int     `mapstructure:"histogram_bins" json:"histogram_bins"`
	Workers           int     `mapstructure:"workers" json:"workers"`
	BatchConcurrency  int     `mapstructure:"batch_concurrency" json:"batch_concurrency"`
}

// probSumTolerance bounds floating drift when checking shock probabilities.
const probSumTolerance = 1e-6

// Validate enforces the scenario-parameter invariants. Violations are
// configuration errors and fatal to a run.
func (c *SimulationConfig) Validate() error {
	if c.Scenarios < 1 {
		return fmt.Errorf("simulation.scenarios must be >= 1, got %d", c.Scenarios)
	}
	if c.HorizonYears < 1 {
		return fmt.Errorf("simulation.horizon_years must be >= 1, got %d", c.HorizonYears)
	}
	if len(c.RateShocks) == 0 || len(c.RateShocks) != len(c.RateShockProbs) {
		return fmt.Errorf("simulation.rate_shocks (%d) and rate_shock_probs (%d) must be non-empty and equal length",
			len(c.RateShocks), len(c.RateShockProbs))
	}
	var sum float64
	for _, p := range c.RateShockProbs {
		if p < 0 {
			return fmt.Errorf("simulation.rate_shock_probs must be non-negative, got %f", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > probSumTolerance {
		return fmt.Errorf("simulation.rate_shock_probs must sum to 1, got %f", sum)
	}
	if c.HistogramBins < 1 {
		return fmt.Errorf("simulation.histogram_bins must be >= 1, got %d", c.HistogramBins)
	}
	return nil
}

// GradingConfig holds the RED/AMBER/GREEN policy thresholds. These are a
// product policy, not simulation math, and are overridable via config or env.
type GradingConfig struct {
	// GREEN requires prob_negative <= GreenMaxProbNegative and
	// mean_irr >= GreenMinMeanIRR.
	GreenMaxProbNegative float64 `mapstructure:"green_max_prob_negative"`
	GreenMinMeanIRR      float64 `mapstructure:"green_min_mean_irr"`

	// RED when prob_negative >= RedMinProbNegative or
	// mean_irr <= RedMaxMeanIRR.
	RedMinProbNegative float64 `mapstructure:"red_min_prob_negative"`
	RedMaxMeanIRR      float64 `mapstructure:"red_max_mean_irr"`
}

type ExportConfig struct {
	// CompressionThreshold is the row count above which the CSV is zipped.
	CompressionThreshold int `mapstructure:"compression_threshold"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

// Validate checks the whole configuration for startup.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if c.Export.CompressionThreshold < 1 {
		return fmt.Errorf("export.compression_threshold must be >= 1, got %d", c.Export.CompressionThreshold)
	}
	if c.Grading.RedMinProbNegative <= c.Grading.GreenMaxProbNegative {
		return fmt.Errorf("grading.red_min_prob_negative (%f) must exceed grading.green_max_prob_negative (%f)",
			c.Grading.RedMinProbNegative, c.Grading.GreenMaxProbNegative)
	}
	return nil
}
