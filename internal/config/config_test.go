package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/himanishpuri/AcousticSync/internal/config"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/controller"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "acousticsync.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.ControllerParams() != controller.DefaultParams() {
		t.Fatalf("expected default params, got %+v", cfg.ControllerParams())
	}
	if cfg.TickInterval() != 2*time.Second {
		t.Fatalf("expected 2s tick, got %s", cfg.TickInterval())
	}
	if cfg.JournalPath() != "" {
		t.Fatalf("journal should be off by default, got %q", cfg.JournalPath())
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
[controller]
latency_ms = 250
required_verifications = 3
stabilize_window_ms = 8000

[matcher]
energy_floor = 0.01

[session]
title = "  Matinee  "

[journal]
enabled = true
path = "journal.db"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}

	p := cfg.ControllerParams()
	if p.LatencyCompensation != 250*time.Millisecond || p.RequiredVerifications != 3 || p.StabilizeWindow != 8*time.Second {
		t.Fatalf("file overrides not applied: %+v", p)
	}
	if p.VerifyTolerance != 2*time.Second {
		t.Fatalf("unset keys should keep defaults, got %s", p.VerifyTolerance)
	}
	if cfg.Thresholds().EnergyFloor != 0.01 {
		t.Fatalf("unexpected energy floor %v", cfg.Thresholds().EnergyFloor)
	}
	if cfg.Session.Title != "Matinee" {
		t.Fatalf("title should be trimmed, got %q", cfg.Session.Title)
	}
	if !filepath.IsAbs(cfg.JournalPath()) || filepath.Base(cfg.JournalPath()) != "journal.db" {
		t.Fatalf("journal path should be absolute, got %q", cfg.JournalPath())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "env.sqlite3")
	t.Setenv("ACOUSTIC_JOURNAL_PATH", journal)
	t.Setenv("ACOUSTIC_SAMPLE_RATE", "22050")
	t.Setenv("ACOUSTIC_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.JournalPath() != journal {
		t.Fatalf("expected env journal %q, got %q", journal, cfg.JournalPath())
	}
	if cfg.Session.SampleRate != 22050 {
		t.Fatalf("expected sample rate 22050, got %d", cfg.Session.SampleRate)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized level debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "[controller]\nbogus = 1\n", "parse config"},
		{"zero tick", "[controller]\ntick_interval_ms = 0\n", "tick_interval_ms"},
		{"max below min", "[controller]\nmin_chunks = 50\nmax_chunks = 40\n", "max_chunks"},
		{"confidence range", "[controller]\nglobal_min_confidence = 150.0\n", "global min confidence"},
		{"low sample rate", "[session]\nsample_rate = 4000\n", "sample_rate"},
		{"journal without path", "[journal]\nenabled = true\npath = \"\"\n", "journal.path"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"bad matcher", "[matcher]\nmin_live_seconds = 0.0\n", "min_live_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := config.Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBadEnvSampleRate(t *testing.T) {
	t.Setenv("ACOUSTIC_SAMPLE_RATE", "fast")
	if _, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatal("expected error for non-numeric sample rate")
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	var parsed config.Config
	if err := toml.Unmarshal([]byte(config.SampleConfig()), &parsed); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	def := config.Default()
	if parsed.Controller != def.Controller {
		t.Fatalf("sample controller table drifted from defaults:\n%+v\n%+v", parsed.Controller, def.Controller)
	}
	if parsed.Matcher != def.Matcher {
		t.Fatalf("sample matcher table drifted from defaults: %+v", parsed.Matcher)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists || cfg.Session.Title != "untitled" {
		t.Fatalf("unexpected sample load: exists=%v title=%q", exists, cfg.Session.Title)
	}
}
