package config

import (
	"os"
	"path/filepath"

	"github.com/himanishpuri/AcousticSync/internal/audio"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/buffer"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/controller"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

const (
	defaultTitle       = "untitled"
	defaultJournalPath = "~/.local/share/acousticsync/journal.sqlite3"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	p := controller.DefaultParams()
	return Config{
		Matcher: Matcher{
			MinLiveSeconds: matcher.MinLiveSeconds,
			EnergyFloor:    matcher.EnergyFloor,
			FlatnessFloor:  matcher.FlatnessFloor,
		},
		Controller: Controller{
			TickIntervalMs:        int(controller.DefaultTickInterval.Milliseconds()),
			MinChunks:             p.MinChunks,
			MaxChunks:             buffer.DefaultMaxChunks,
			LatencyMs:             int(p.LatencyCompensation.Milliseconds()),
			GlobalMinConfidence:   p.GlobalMinConfidence,
			LocalMinConfidence:    p.LocalMinConfidence,
			LocalWindowSeconds:    int(p.LocalWindow.Seconds()),
			DriftThresholdMs:      int(p.DriftThreshold.Milliseconds()),
			VerifyToleranceMs:     int(p.VerifyTolerance.Milliseconds()),
			RequiredVerifications: p.RequiredVerifications,
			StabilizeWindowMs:     int(p.StabilizeWindow.Milliseconds()),
		},
		Session: Session{
			Title:      defaultTitle,
			SampleRate: audio.DefaultSampleRate,
			TempDir:    filepath.Join(os.TempDir(), "acousticsync"),
		},
		Journal: Journal{
			Enabled: false,
			Path:    defaultJournalPath,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
