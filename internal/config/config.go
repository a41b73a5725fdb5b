package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/castenv/normalize"
	"github.com/eugenenazirov/castenv/source"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultLogEncoding    = "json"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50

	envPrefix = "CASTENV_"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	// Source drives key resolution for every command.
	Source source.Config

	// ProviderINI names a settings file served as the credential store.
	// When empty and DetectProvider is set, settings.ini is searched upward
	// from the working directory.
	ProviderINI    string
	DetectProvider bool
	DetectEnvName  bool

	LogLevel    string
	LogEncoding string

	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	SearchDirs          []string   `yaml:"search_dirs"`
	EnvName             string     `yaml:"env_name"`
	DetectEnvName       *bool      `yaml:"detect_env_name"`
	Filenames           []string   `yaml:"filenames"`
	StopAtFirstFoundDir *bool      `yaml:"stop_at_first_found_dir"`
	PreferOSOverDotenv  *bool      `yaml:"prefer_os_over_dotenv"`
	UseProvider         *bool      `yaml:"use_provider"`
	ProviderINI         string     `yaml:"provider_ini"`
	LogLevel            string     `yaml:"log_level"`
	LogEncoding         string     `yaml:"log_encoding"`
	Server              yamlServer `yaml:"server"`
}

// yamlServer represents the inspector server section in YAML.
type yamlServer struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	SearchDirs     []string
	EnvName        *string
	DetectEnvName  bool
	Filenames      []string
	WalkAllDirs    bool
	PreferDotenv   bool
	NoProvider     bool
	ProviderINI    *string
	LogLevel       *string
	LogEncoding    *string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables (override defaults)
	applyEnvConfig(&cfg)

	// Load from YAML file if specified (override environment)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg, filepath.Dir(overrides.ConfigFile)); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if cfg.DetectEnvName && cfg.Source.EnvName == "" {
		cfg.Source.EnvName = source.DetectEnvName(source.Process)
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Source:               source.DefaultConfig(),
		DetectProvider:       true,
		LogLevel:             defaultLogLevel,
		LogEncoding:          defaultLogEncoding,
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct. Relative
// search directories and provider paths are taken relative to baseDir.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig, baseDir string) error {
	if len(yamlCfg.SearchDirs) > 0 {
		dirs := make([]string, len(yamlCfg.SearchDirs))
		for i, dir := range yamlCfg.SearchDirs {
			dirs[i] = resolvePath(baseDir, dir)
		}
		cfg.Source.SearchDirs = dirs
	}
	if yamlCfg.EnvName != "" {
		cfg.Source.EnvName = yamlCfg.EnvName
	}
	if yamlCfg.DetectEnvName != nil {
		cfg.DetectEnvName = *yamlCfg.DetectEnvName
	}
	if len(yamlCfg.Filenames) > 0 {
		cfg.Source.Filenames = yamlCfg.Filenames
	}
	if yamlCfg.StopAtFirstFoundDir != nil {
		cfg.Source.StopAtFirstFoundDir = *yamlCfg.StopAtFirstFoundDir
	}
	if yamlCfg.PreferOSOverDotenv != nil {
		cfg.Source.PreferOSOverDotenv = *yamlCfg.PreferOSOverDotenv
	}
	if yamlCfg.UseProvider != nil {
		cfg.Source.UseProviderIfAvailable = *yamlCfg.UseProvider
	}
	if yamlCfg.ProviderINI != "" {
		cfg.ProviderINI = resolvePath(baseDir, yamlCfg.ProviderINI)
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogEncoding != "" {
		cfg.LogEncoding = yamlCfg.LogEncoding
	}

	srv := yamlCfg.Server
	if srv.Port != "" {
		cfg.Port = srv.Port
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{name: "shutdown_grace_period", raw: srv.ShutdownGracePeriod, dst: &cfg.ShutdownGracePeriod},
		{name: "read_header_timeout", raw: srv.ReadHeaderTimeout, dst: &cfg.ReadHeaderTimeout},
		{name: "write_timeout", raw: srv.WriteTimeout, dst: &cfg.WriteTimeout},
		{name: "idle_timeout", raw: srv.IdleTimeout, dst: &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("server.%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if srv.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *srv.EnableRequestLogging
	}
	if srv.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *srv.RateLimit.RPS
	}
	if srv.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *srv.RateLimit.Burst
	}
	return nil
}

// applyEnvConfig applies CASTENV_* environment variables.
func applyEnvConfig(cfg *Config) {
	if dirs := strings.TrimSpace(os.Getenv(envPrefix + "SEARCH_DIRS")); dirs != "" {
		cfg.Source.SearchDirs = splitNonEmpty(dirs, string(os.PathListSeparator))
	}
	if name := strings.TrimSpace(os.Getenv(envPrefix + "ENV")); name != "" {
		cfg.Source.EnvName = name
	}
	if names := strings.TrimSpace(os.Getenv(envPrefix + "FILENAMES")); names != "" {
		cfg.Source.Filenames = splitNonEmpty(names, ",")
	}
	applyEnvBool(envPrefix+"DETECT_ENV", &cfg.DetectEnvName)
	applyEnvBool(envPrefix+"STOP_AT_FIRST_FOUND_DIR", &cfg.Source.StopAtFirstFoundDir)
	applyEnvBool(envPrefix+"PREFER_OS_OVER_DOTENV", &cfg.Source.PreferOSOverDotenv)
	applyEnvBool(envPrefix+"USE_PROVIDER", &cfg.Source.UseProviderIfAvailable)

	if path := strings.TrimSpace(os.Getenv(envPrefix + "PROVIDER_INI")); path != "" {
		cfg.ProviderINI = path
	}
	if level := strings.TrimSpace(os.Getenv(envPrefix + "LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	if enc := strings.TrimSpace(os.Getenv(envPrefix + "LOG_ENCODING")); enc != "" {
		cfg.LogEncoding = enc
	}
	if port := strings.TrimSpace(os.Getenv(envPrefix + "PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv(envPrefix + "RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv(envPrefix + "RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

func applyEnvBool(key string, dst *bool) {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return
	}
	if b, ok := normalize.ParseBool(raw); ok {
		*dst = b
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if len(overrides.SearchDirs) > 0 {
		cfg.Source.SearchDirs = overrides.SearchDirs
	}
	if overrides.EnvName != nil && *overrides.EnvName != "" {
		cfg.Source.EnvName = *overrides.EnvName
	}
	if overrides.DetectEnvName {
		cfg.DetectEnvName = true
	}
	if len(overrides.Filenames) > 0 {
		cfg.Source.Filenames = overrides.Filenames
	}
	if overrides.WalkAllDirs {
		cfg.Source.StopAtFirstFoundDir = false
	}
	if overrides.PreferDotenv {
		cfg.Source.PreferOSOverDotenv = false
	}
	if overrides.NoProvider {
		cfg.Source.UseProviderIfAvailable = false
		cfg.DetectProvider = false
	}
	if overrides.ProviderINI != nil && *overrides.ProviderINI != "" {
		cfg.ProviderINI = *overrides.ProviderINI
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.LogEncoding != nil && *overrides.LogEncoding != "" {
		cfg.LogEncoding = *overrides.LogEncoding
	}
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst must be >= 0")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	if cfg.LogEncoding != "json" && cfg.LogEncoding != "console" {
		return fmt.Errorf("invalid log encoding %q", cfg.LogEncoding)
	}
	return nil
}

func splitNonEmpty(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "~") {
		return path
	}
	return filepath.Join(baseDir, path)
}
