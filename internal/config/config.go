package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/controller"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

//go:embed sample_config.toml
var sampleConfig string

// Matcher gates which live envelopes are correlated at all.
type Matcher struct {
	MinLiveSeconds float64 `toml:"min_live_seconds"`
	EnergyFloor    float64 `toml:"energy_floor"`
	FlatnessFloor  float64 `toml:"flatness_floor"`
}

// Controller holds the sync state machine tunables. Durations are in
// milliseconds unless the key says otherwise.
type Controller struct {
	TickIntervalMs        int     `toml:"tick_interval_ms"`
	MinChunks             int     `toml:"min_chunks"`
	MaxChunks             int     `toml:"max_chunks"`
	LatencyMs             int     `toml:"latency_ms"`
	GlobalMinConfidence   float64 `toml:"global_min_confidence"`
	LocalMinConfidence    float64 `toml:"local_min_confidence"`
	LocalWindowSeconds    int     `toml:"local_window_seconds"`
	DriftThresholdMs      int     `toml:"drift_threshold_ms"`
	VerifyToleranceMs     int     `toml:"verify_tolerance_ms"`
	RequiredVerifications int     `toml:"required_verifications"`
	StabilizeWindowMs     int     `toml:"stabilize_window_ms"`
}

// Session contains per-run settings for reference loading.
type Session struct {
	Title      string `toml:"title"`
	SampleRate int    `toml:"sample_rate"`
	TempDir    string `toml:"temp_dir"`
}

// Journal configures the SQLite sync journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values for acousticsync.
type Config struct {
	Matcher    Matcher    `toml:"matcher"`
	Controller Controller `toml:"controller"`
	Session    Session    `toml:"session"`
	Journal    Journal    `toml:"journal"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/acousticsync/config.toml")
}

// SampleConfig returns a commented configuration file with every default.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. A missing file
// is not an error; defaults and environment overrides still apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("acousticsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// ControllerParams converts the [controller] table into state machine params.
func (c *Config) ControllerParams() controller.Params {
	cc := c.Controller
	return controller.Params{
		MinChunks:             cc.MinChunks,
		LatencyCompensation:   ms(cc.LatencyMs),
		GlobalMinConfidence:   cc.GlobalMinConfidence,
		LocalMinConfidence:    cc.LocalMinConfidence,
		LocalWindow:           time.Duration(cc.LocalWindowSeconds) * time.Second,
		DriftThreshold:        ms(cc.DriftThresholdMs),
		VerifyTolerance:       ms(cc.VerifyToleranceMs),
		RequiredVerifications: cc.RequiredVerifications,
		StabilizeWindow:       ms(cc.StabilizeWindowMs),
	}
}

// Thresholds converts the [matcher] table.
func (c *Config) Thresholds() matcher.Thresholds {
	return matcher.Thresholds{
		MinLiveSeconds: c.Matcher.MinLiveSeconds,
		EnergyFloor:    c.Matcher.EnergyFloor,
		FlatnessFloor:  c.Matcher.FlatnessFloor,
	}
}

func (c *Config) TickInterval() time.Duration {
	return ms(c.Controller.TickIntervalMs)
}

// JournalPath returns the journal location, or "" when journaling is off.
func (c *Config) JournalPath() string {
	if !c.Journal.Enabled {
		return ""
	}
	return c.Journal.Path
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
