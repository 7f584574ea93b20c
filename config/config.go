// Package config loads EconFlux runtime settings from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

const (
	// DefaultModelID is the Bedrock inference profile used when
	// BEDROCK_MODEL_ID is unset.
	DefaultModelID = "us.anthropic.claude-sonnet-4-20250514-v1:0"

	// DefaultGuardrailVersion is used when a guardrail id is set without a version.
	DefaultGuardrailVersion = "DRAFT"

	DefaultRegion     = "us-east-1"
	DefaultLogLevel   = "INFO"
	DefaultPort       = 8080
	DefaultSessionTTL = 24 * time.Hour
	DefaultMaxTurns   = 10

	DefaultInvocationTimeout = 120 * time.Second
	DefaultRetryAttempts     = DefaultRetryMaxAttempts

	DefaultEvalRecordingsDir = "eval_recordings"
)

// Knowledge base id variables.
const (
	EnvMonetaryPolicyKB     = "KB_MONETARY_POLICY_ID"
	EnvEconomicIndicatorsKB = "KB_ECONOMIC_INDICATORS_ID"
	EnvRegulatoryChangesKB  = "KB_REGULATORY_CHANGES_ID"
	EnvPolicyDecisionsKB    = "KB_POLICY_DECISIONS_ID"

	// EnvDefaultKB is searched by the generic retrieve tool when no id is
	// given.
	EnvDefaultKB = "KNOWLEDGE_BASE_ID"
)

var knowledgeBaseVars = []string{
	EnvMonetaryPolicyKB,
	EnvEconomicIndicatorsKB,
	EnvRegulatoryChangesKB,
	EnvPolicyDecisionsKB,
	EnvDefaultKB,
}

// Config holds the runtime settings.
type Config struct {
	ModelID          string
	GuardrailID      string
	GuardrailVersion string
	EvalMode         bool
	LogLevel         string
	Region           string

	// KnowledgeBases maps a KB_*_ID variable name to its id. Unset
	// variables are absent.
	KnowledgeBases map[string]string

	Port               int
	RedisURL           string
	SessionTTL         time.Duration
	OTLPEndpoint       string
	ConsoleExport      bool
	CORSAllowedOrigins []string
	MaxTurns           int

	// InvocationTimeout bounds one /invocations request.
	InvocationTimeout time.Duration
	// RetryAttempts is the SDK retry count for the AWS clients.
	RetryAttempts int
	// InputScreening is off, warn or block.
	InputScreening string
	// EvalRecordingsDir receives per-session interaction recordings in
	// eval mode.
	EvalRecordingsDir string
}

// Load reads an optional .env file in the working directory and then the
// process environment. Variables already set are not overridden by .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		ModelID:          orDefault(getenv("BEDROCK_MODEL_ID"), DefaultModelID),
		GuardrailID:      strings.TrimSpace(getenv("GUARDRAIL_ID")),
		GuardrailVersion: orDefault(getenv("GUARDRAIL_VERSION"), DefaultGuardrailVersion),
		EvalMode:         strings.EqualFold(strings.TrimSpace(getenv("EVAL_MODE")), "true"),
		LogLevel:         strings.ToUpper(orDefault(getenv("LOG_LEVEL"), DefaultLogLevel)),
		Region:           orDefault(getenv("AWS_REGION"), orDefault(getenv("AWS_DEFAULT_REGION"), DefaultRegion)),
		KnowledgeBases:   make(map[string]string),
		RedisURL:         strings.TrimSpace(getenv("REDIS_URL")),
		OTLPEndpoint:     strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		ConsoleExport:    strings.EqualFold(strings.TrimSpace(getenv("OTEL_CONSOLE_EXPORT")), "true"),
		InputScreening:   strings.ToLower(orDefault(getenv("INPUT_SCREENING"), "warn")),
	}

	cfg.EvalRecordingsDir = orDefault(getenv("EVAL_RECORDINGS_DIR"), DefaultEvalRecordingsDir)

	for _, name := range knowledgeBaseVars {
		if id := strings.TrimSpace(getenv(name)); id != "" {
			cfg.KnowledgeBases[name] = id
		}
	}

	for _, origin := range strings.Split(getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	var err error
	if cfg.Port, err = positiveInt(getenv, "PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.MaxTurns, err = positiveInt(getenv, "MAX_TURNS", DefaultMaxTurns); err != nil {
		return nil, err
	}
	ttl, err := positiveInt(getenv, "SESSION_TTL_SECONDS", int(DefaultSessionTTL/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = time.Duration(ttl) * time.Second

	timeout, err := positiveInt(getenv, "INVOCATION_TIMEOUT_SECONDS", int(DefaultInvocationTimeout/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.InvocationTimeout = time.Duration(timeout) * time.Second

	if cfg.RetryAttempts, err = positiveInt(getenv, "RETRY_ATTEMPTS", DefaultRetryAttempts); err != nil {
		return nil, err
	}

	return cfg, nil
}

// KnowledgeBaseID returns the id configured for a KB_*_ID or
// KNOWLEDGE_BASE_ID variable.
func (c *Config) KnowledgeBaseID(envVar string) (string, bool) {
	id, ok := c.KnowledgeBases[envVar]
	return id, ok
}

// Addr is the listen address for the runtime server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func positiveInt(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, econflux.NewConfigurationError(key, "must be a positive integer, got "+strconv.Quote(raw))
	}
	return n, nil
}
