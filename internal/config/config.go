package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Config is the root configuration for PulseBridge. It is built once at
// process start and passed by parameter; nothing reads it from globals.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Slack    SlackConfig    `json:"slack"`
	Backends BackendsConfig `json:"backends"`
	Insights InsightsConfig `json:"insights"`
	Health   HealthConfig   `json:"health"`
}

type GeneralConfig struct {
	LogLevel            string `json:"logLevel"`
	MaxConcurrentEvents int    `json:"maxConcurrentEvents"`
}

type SlackConfig struct {
	BotToken string `json:"botToken"`
	AppToken string `json:"appToken"` // required for Socket Mode
}

// BackendsConfig holds the outbound collaborator endpoints. URLs and the
// service token are mandatory for the requests that use them; a missing value
// fails that request, never the process.
type BackendsConfig struct {
	TenantURL        string `json:"tenantUrl"`
	RetrievalURL     string `json:"retrievalUrl"`
	InterventionURL  string `json:"interventionUrl"`
	FeedbackURL      string `json:"feedbackUrl"`
	IngestURL        string `json:"ingestUrl"`
	ServiceToken     string `json:"serviceToken"`
	RetrievalTimeout int    `json:"retrievalTimeoutSeconds,omitempty"`
}

// InsightsConfig tunes the sampling and size policy. All three values are
// optional; invalid or out-of-range values fall back to defaults in
// Normalize rather than failing the load.
type InsightsConfig struct {
	SampleRate    FlexFloat `json:"sampleRate"`
	MaxTextLength FlexInt   `json:"maxTextLength"`
	MinTextLength FlexInt   `json:"minTextLength"`
}

type HealthConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// FlexFloat is a float64 that can unmarshal from a JSON number or a string
// (config values substituted from env vars often arrive quoted). Garbage
// input leaves the value unset instead of failing the whole config.
type FlexFloat struct {
	Value float64
	Set   bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value, f.Set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			f.Value, f.Set = v, true
		}
		return nil
	}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// FlexInt mirrors FlexFloat for integer settings.
type FlexInt struct {
	Value int
	Set   bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		f.Value, f.Set = n, true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			f.Value, f.Set = v, true
		}
		return nil
	}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// DefaultConfigDir returns the default config directory (~/.pulsebridge).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pulsebridge"
	}
	return filepath.Join(home, ".pulsebridge")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.Normalize()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Normalize replaces unset or out-of-range insight tuning values with the
// documented defaults. A bad environment value must never take the process
// down over the sampling policy.
func (c *Config) Normalize() {
	if !c.Insights.SampleRate.Set || c.Insights.SampleRate.Value < 0 || c.Insights.SampleRate.Value > 1 {
		c.Insights.SampleRate = FlexFloat{Value: DefaultSampleRate, Set: true}
	}
	if !c.Insights.MaxTextLength.Set || c.Insights.MaxTextLength.Value < 1 {
		c.Insights.MaxTextLength = FlexInt{Value: DefaultMaxTextLength, Set: true}
	}
	if !c.Insights.MinTextLength.Set || c.Insights.MinTextLength.Value < 1 {
		c.Insights.MinTextLength = FlexInt{Value: DefaultMinTextLength, Set: true}
	}
	if c.Backends.RetrievalTimeout < 1 {
		c.Backends.RetrievalTimeout = DefaultRetrievalTimeoutS
	}
	if c.General.MaxConcurrentEvents < 1 {
		c.General.MaxConcurrentEvents = DefaultMaxConcurrentEvents
	}
}

// Validate checks structural config values. Backend URLs are deliberately not
// required here: a missing URL fails the specific request at first use.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	if cfg.General.MaxConcurrentEvents > 100 {
		errs = append(errs, "general.maxConcurrentEvents must be <= 100")
	}
	if cfg.Health.Port < 0 || cfg.Health.Port > 65535 {
		errs = append(errs, "health.port must be between 0 and 65535")
	}
	for _, u := range []struct{ name, val string }{
		{"backends.tenantUrl", cfg.Backends.TenantURL},
		{"backends.retrievalUrl", cfg.Backends.RetrievalURL},
		{"backends.interventionUrl", cfg.Backends.InterventionURL},
		{"backends.feedbackUrl", cfg.Backends.FeedbackURL},
		{"backends.ingestUrl", cfg.Backends.IngestURL},
	} {
		if u.val != "" && !strings.HasPrefix(u.val, "http://") && !strings.HasPrefix(u.val, "https://") {
			errs = append(errs, u.name+" must be an http(s) URL")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
