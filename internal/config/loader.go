package config

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/urbanyield/riskengine/pkg/errors"
)

// LoadConfig loads the configuration from file and environment variables.
// Precedence: env (RISK_ prefixed) > config file > defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/riskengine/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ErrConfiguration("failed to read config file").WithError(err)
		}
	}

	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrConfiguration("failed to unmarshal config").WithError(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ErrConfiguration(err.Error()).WithError(err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.pprof_enabled", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "riskengine")
	v.SetDefault("database.database", "riskengine")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.transition_topic", "risk.grade.transitions")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.enabled", false)

	v.SetDefault("simulation.scenarios", 5000)
	v.SetDefault("simulation.horizon_years", 10)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.price_growth_mean", 0.03)
	v.SetDefault("simulation.price_growth_std", 0.10)
	v.SetDefault("simulation.rent_growth_mean", 0.03)
	v.SetDefault("simulation.rent_growth_std", 0.05)
	v.SetDefault("simulation.rent_growth_cap", 0.10)
	v.SetDefault("simulation.base_interest_rate", 0.045)
	v.SetDefault("simulation.rate_shocks", []float64{-0.01, 0.0, 0.01, 0.02})
	v.SetDefault("simulation.rate_shock_probs", []float64{0.2, 0.4, 0.3, 0.1})
	v.SetDefault("simulation.irr_target", 0.12)
	v.SetDefault("simulation.management_fee_rate", 0.05)
	v.SetDefault("simulation.selling_cost_rate", 0.02)
	v.SetDefault("simulation.loan_ratio", 0.0)
	v.SetDefault("simulation.histogram_bins", 20)
	v.SetDefault("simulation.workers", 0) // 0 = GOMAXPROCS
	v.SetDefault("simulation.batch_concurrency", 4)

	v.SetDefault("grading.green_max_prob_negative", 0.05)
	v.SetDefault("grading.green_min_mean_irr", 0.12)
	v.SetDefault("grading.red_min_prob_negative", 0.35)
	v.SetDefault("grading.red_max_mean_irr", -0.05)

	v.SetDefault("export.compression_threshold", 10000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", "riskengine")
}
