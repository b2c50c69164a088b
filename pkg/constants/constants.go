// Package constants defines shared constants for the risk engine.
package constants

import "time"

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "not_found"
	ErrCodeInvalidRequest     ErrorCode = "invalid_request"
	ErrCodeConfiguration      ErrorCode = "configuration_error"
	ErrCodeNumericFailure     ErrorCode = "numeric_failure"
	ErrCodePersistenceFailure ErrorCode = "persistence_failure"
	ErrCodeInternal           ErrorCode = "internal_error"
	ErrCodeUnavailable        ErrorCode = "service_unavailable"
)

// LogLevel represents a logging level.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Context keys used across layers.
type ContextKey string

const (
	ContextKeyTraceID ContextKey = "trace_id"
	ContextKeyTx      ContextKey = "gorm_tx"
)

// Market metric kinds consumed as baseline priors.
const (
	MetricKindInterestRateBaseline = "interest_rate_baseline"
	MetricKindRentIndex            = "rent_index"
)

// Cache keys and TTLs.
const (
	CacheKeyRiskResultPrefix = "risk:result:"
	RiskResultCacheTTL       = 10 * time.Minute
	BaselineCacheTTL         = 5 * time.Minute
)

// Export defaults.
const (
	ExportAssumptionSet  = "base"
	ExportFilenameFormat = "risk_simulation_%s.csv"
)
