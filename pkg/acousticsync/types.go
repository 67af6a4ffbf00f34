package acousticsync

import (
	"errors"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/controller"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/cue"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/storage"
)

// Report is the outcome of one tick.
type Report = controller.Report

// Mode is the scan mode a report was produced in.
type Mode = controller.Mode

const (
	ModeGlobal = controller.ModeGlobal
	ModeLocal  = controller.ModeLocal
)

// Cue is a timeline point the host wants to hear about once it is reached.
type Cue = cue.Cue

// EventKind names a journaled timeline event.
type EventKind = storage.EventKind

const (
	EventCommit = storage.EventCommit
	EventSeek   = storage.EventSeek
	EventResync = storage.EventResync
)

var (
	// ErrNoMasterFingerprint is returned by Start before a reference is built.
	ErrNoMasterFingerprint = matcher.ErrNoMasterFingerprint
	ErrInvalidSampleRate   = errors.New("sample rate must be positive")
	ErrEmptyReference      = errors.New("reference audio is empty")
	ErrInvalidDuration     = errors.New("reference duration exceeds its samples")
	ErrAlreadyRunning      = errors.New("session already running")
	ErrNotRunning          = errors.New("session not running")
)
