package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFileEnvVar         = "CROP_TO_AI_ENV"
	SettingsPathEnvVar    = "SETTINGS_PATH"
	HistoryPathEnvVar     = "HISTORY_PATH"
	SelectorCommandEnvVar = "SELECTOR_COMMAND"

	DefaultSelectorCommand = `slop -f "%x %y %w %h"`
	appDirName             = "crop-to-ai"
)

// LoadOptions carries command-line overrides, which win over .env and environment.
type LoadOptions struct {
	SettingsPathOverride string
	HistoryPathOverride  string
	Verbose              bool
}

// Config is the process-level runtime configuration. The user-facing target
// settings (AI URL, shortcuts) live in the settings store instead.
type Config struct {
	SettingsPath      string
	HistoryPath       string
	EnableFileLogging bool
	LogLevel          string
	Verbose           bool
	SelectorCommand   string
	// WatchTimeoutSec overrides the per-target paste timeout when positive.
	WatchTimeoutSec int
	SupersedeStale  bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order: flags, .env beside the executable (or the file
	// named by CROP_TO_AI_ENV), process environment, defaults.
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	watchTimeout := 0
	if v := os.Getenv("WATCH_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			watchTimeout = n
		}
	}

	cfg := &Config{
		SettingsPath:      resolvePath(opts.SettingsPathOverride, dotenvValues[SettingsPathEnvVar], os.Getenv(SettingsPathEnvVar), defaultSettingsPath()),
		HistoryPath:       resolvePath(opts.HistoryPathOverride, dotenvValues[HistoryPathEnvVar], os.Getenv(HistoryPathEnvVar), ""),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "debug"),
		Verbose:           opts.Verbose,
		SelectorCommand:   getEnvWithDefault(SelectorCommandEnvVar, DefaultSelectorCommand),
		WatchTimeoutSec:   watchTimeout,
		SupersedeStale:    parseBool(os.Getenv("SUPERSEDE_STALE_WATCHERS"), true),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

// resolvePath returns the first non-blank candidate.
func resolvePath(candidates ...string) string {
	for _, c := range candidates {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "settings.json"
	}
	return filepath.Join(dir, appDirName, "settings.json")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(value string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// WatchTimeout returns the timeout override, or 0 when per-target defaults apply.
func (c *Config) WatchTimeout() int {
	if c == nil || c.WatchTimeoutSec <= 0 {
		return 0
	}
	return c.WatchTimeoutSec
}
