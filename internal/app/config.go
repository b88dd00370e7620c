package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/notabene-app/notabene-backend/internal/platform/envutil"
	"github.com/notabene-app/notabene-backend/internal/platform/logger"
	"github.com/notabene-app/notabene-backend/internal/services"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	CORSOrigins []string

	WorkerEnabled      bool
	WorkerConcurrency  int
	WorkerPollInterval time.Duration

	Analyzer services.AnalyzerConfig
}

// fileConfig mirrors the optional YAML config file. Every field is a
// pointer so absent keys leave the env-derived value alone.
type fileConfig struct {
	Port        *string  `yaml:"port"`
	Environment *string  `yaml:"environment"`
	CORSOrigins []string `yaml:"cors_origins"`

	Worker struct {
		Enabled      *bool `yaml:"enabled"`
		Concurrency  *int  `yaml:"concurrency"`
		PollInterval *int  `yaml:"poll_interval_seconds"`
	} `yaml:"worker"`

	Analyzer struct {
		ChunkTokens          *int     `yaml:"chunk_tokens"`
		MaxTextBytes         *int     `yaml:"max_text_bytes"`
		RunTimeoutMinutes    *int     `yaml:"run_timeout_minutes"`
		LockTTLMinutes       *int     `yaml:"lock_ttl_minutes"`
		MaxMonthlyAudioHours *float64 `yaml:"max_monthly_audio_hours"`
	} `yaml:"analyzer"`
}

// LoadConfig reads from the environment, then overlays values from the
// YAML file named by CONFIG_FILE when one is set.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:               envutil.GetEnv("PORT", "8080", log),
		Environment:        envutil.GetEnv("APP_ENV", "development", log),
		Version:            envutil.GetEnv("APP_VERSION", "dev", nil),
		WorkerEnabled:      envutil.GetEnvAsBool("WORKER_ENABLED", true, log),
		WorkerConcurrency:  envutil.GetEnvAsInt("WORKER_CONCURRENCY", 2, log),
		WorkerPollInterval: time.Duration(envutil.GetEnvAsInt("WORKER_POLL_INTERVAL_SECONDS", 3, log)) * time.Second,
		Analyzer: services.AnalyzerConfig{
			ChunkTokens:           envutil.GetEnvAsInt("ANALYZER_CHUNK_TOKENS", 2000, log),
			MaxTextBytes:          envutil.GetEnvAsInt("ANALYZER_MAX_TEXT_BYTES", 200_000, log),
			RunTimeout:            time.Duration(envutil.GetEnvAsInt("ANALYZER_RUN_TIMEOUT_MINUTES", 30, log)) * time.Minute,
			LockTTL:               time.Duration(envutil.GetEnvAsInt("ANALYZER_LOCK_TTL_MINUTES", 45, log)) * time.Minute,
			MaxMonthlyAudioSecond: float64(envutil.GetEnvAsInt("ANALYZER_MAX_MONTHLY_AUDIO_SECONDS", 36_000, log)),
		},
	}

	origins := envutil.GetEnv("CORS_ORIGINS", "http://localhost:3000", log)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	path := envutil.GetEnv("CONFIG_FILE", "", nil)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	applyFileConfig(&cfg, fc)
	log.Info("config file applied", "path", path)
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.Environment != nil {
		cfg.Environment = *fc.Environment
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.Worker.Enabled != nil {
		cfg.WorkerEnabled = *fc.Worker.Enabled
	}
	if fc.Worker.Concurrency != nil {
		cfg.WorkerConcurrency = *fc.Worker.Concurrency
	}
	if fc.Worker.PollInterval != nil {
		cfg.WorkerPollInterval = time.Duration(*fc.Worker.PollInterval) * time.Second
	}
	if fc.Analyzer.ChunkTokens != nil {
		cfg.Analyzer.ChunkTokens = *fc.Analyzer.ChunkTokens
	}
	if fc.Analyzer.MaxTextBytes != nil {
		cfg.Analyzer.MaxTextBytes = *fc.Analyzer.MaxTextBytes
	}
	if fc.Analyzer.RunTimeoutMinutes != nil {
		cfg.Analyzer.RunTimeout = time.Duration(*fc.Analyzer.RunTimeoutMinutes) * time.Minute
	}
	if fc.Analyzer.LockTTLMinutes != nil {
		cfg.Analyzer.LockTTL = time.Duration(*fc.Analyzer.LockTTLMinutes) * time.Minute
	}
	if fc.Analyzer.MaxMonthlyAudioHours != nil {
		cfg.Analyzer.MaxMonthlyAudioSecond = *fc.Analyzer.MaxMonthlyAudioHours * 3600
	}
}
