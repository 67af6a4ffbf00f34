package controller

import (
	"fmt"
	"time"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/cue"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

// Phase is the externally visible state of the sync state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseStabilizing
	PhaseScanning
	PhaseVerifying
	PhaseLocked
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseStabilizing:
		return "stabilizing"
	case PhaseScanning:
		return "scanning"
	case PhaseVerifying:
		return "verifying"
	case PhaseLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Status says what happened on the tick that produced a Report.
// None of these are faults; the next tick always runs.
type Status int

const (
	StatusNone Status = iota
	StatusInsufficientSample
	StatusWeakSignal
	StatusSilentOrFlat
	StatusNoMasterFingerprint
	StatusStabilizing
	StatusVerifying
	StatusStable
	StatusCommitted
	StatusLocked
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusInsufficientSample:
		return "insufficient_sample"
	case StatusWeakSignal:
		return "weak_signal"
	case StatusSilentOrFlat:
		return "silent_or_flat"
	case StatusNoMasterFingerprint:
		return "no_master_fingerprint"
	case StatusStabilizing:
		return "stabilizing"
	case StatusVerifying:
		return "verifying"
	case StatusStable:
		return "stable"
	case StatusCommitted:
		return "committed"
	case StatusLocked:
		return "locked"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Report is the outcome of one tick, handed to the host for display.
type Report struct {
	At                 time.Time
	Phase              Phase
	Mode               Mode
	Status             Status
	ConfidencePercent  float64
	TimelineSeconds    float64 // last committed or seeked position
	PositionSeconds    float64 // TimelineSeconds extrapolated to At
	DriftSeconds       float64
	Verifications      int
	StabilizeRemaining time.Duration
	Committed          bool
	Match              *matcher.Result
	DueCues            []cue.Cue
}

// Locked reports whether the tick ended in the permanent lock.
func (r Report) Locked() bool { return r.Phase == PhaseLocked }

func (r Report) String() string {
	switch r.Phase {
	case PhaseStabilizing:
		return fmt.Sprintf("%s %.1fs left", r.Phase, r.StabilizeRemaining.Seconds())
	case PhaseVerifying:
		return fmt.Sprintf("%s(%d) %s %.0f%% @%.2fs", r.Phase, r.Verifications, r.Mode, r.ConfidencePercent, r.PositionSeconds)
	case PhaseScanning:
		return fmt.Sprintf("%s(%s) %s %.0f%%", r.Phase, r.Mode, r.Status, r.ConfidencePercent)
	default:
		return fmt.Sprintf("%s %s %.0f%% @%.2fs", r.Phase, r.Status, r.ConfidencePercent, r.PositionSeconds)
	}
}
