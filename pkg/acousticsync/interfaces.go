package acousticsync

import (
	"context"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/storage"
)

// Syncer is the host-facing surface of a Session.
type Syncer interface {
	BuildMasterFingerprint(samples []float64, sourceRateHz int, durationSeconds float64) error
	PushLiveChunk(samples []float64)
	Tick(ctx context.Context) Report
	Seek(timelineSeconds float64)
	ForceResync()
	RegisterCues(cues ...Cue)
	Start(ctx context.Context) error
	Stop() error
	State() Report
	Close() error
}

// Storage is the sync journal. Implementations must be safe for use from
// the session's ticker goroutine.
type Storage interface {
	RegisterSession(title string, masterDurationMs int) (string, error)
	EndSession(sessionID string) error
	RecordEvent(sessionID string, kind storage.EventKind, timelineSeconds, confidencePercent float64) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
