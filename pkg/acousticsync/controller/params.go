package controller

import (
	"errors"
	"fmt"
	"time"
)

// ------------------------ TUNABLES ------------------------
const (
	DefaultTickInterval          = 2 * time.Second
	DefaultMinChunks             = 30
	DefaultLatencyCompensation   = 500 * time.Millisecond
	DefaultGlobalMinConfidence   = 30.0
	DefaultLocalMinConfidence    = 40.0
	DefaultLocalWindow           = 120 * time.Second
	DefaultDriftThreshold        = 3 * time.Second
	DefaultVerifyTolerance       = 2 * time.Second
	DefaultRequiredVerifications = 2
	DefaultStabilizeWindow       = 5 * time.Second
)

// Params are the decision thresholds of the sync state machine.
type Params struct {
	// MinChunks is the buffered chunk count below which no match is tried.
	MinChunks int
	// LatencyCompensation is subtracted from every raw match offset.
	LatencyCompensation time.Duration
	// GlobalMinConfidence and LocalMinConfidence are acceptance thresholds
	// in percent for the two scan modes.
	GlobalMinConfidence float64
	LocalMinConfidence  float64
	// LocalWindow is the half-width of a local scan around the believed position.
	LocalWindow time.Duration
	// DriftThreshold is the disagreement above which a local hit needs verification.
	DriftThreshold time.Duration
	// VerifyTolerance is how far an observation may sit from the
	// extrapolated candidate and still confirm it (inclusive).
	VerifyTolerance time.Duration
	// RequiredVerifications is the observation count that commits a candidate.
	RequiredVerifications int
	// StabilizeWindow is how long matching pauses after a seek.
	StabilizeWindow time.Duration
}

func DefaultParams() Params {
	return Params{
		MinChunks:             DefaultMinChunks,
		LatencyCompensation:   DefaultLatencyCompensation,
		GlobalMinConfidence:   DefaultGlobalMinConfidence,
		LocalMinConfidence:    DefaultLocalMinConfidence,
		LocalWindow:           DefaultLocalWindow,
		DriftThreshold:        DefaultDriftThreshold,
		VerifyTolerance:       DefaultVerifyTolerance,
		RequiredVerifications: DefaultRequiredVerifications,
		StabilizeWindow:       DefaultStabilizeWindow,
	}
}

// Validate reports every out-of-range field.
func (p Params) Validate() error {
	var errs []error
	if p.MinChunks < 1 {
		errs = append(errs, fmt.Errorf("min chunks must be >= 1, got %d", p.MinChunks))
	}
	if p.LatencyCompensation < 0 {
		errs = append(errs, fmt.Errorf("latency compensation must be >= 0, got %s", p.LatencyCompensation))
	}
	if p.GlobalMinConfidence < 0 || p.GlobalMinConfidence > 100 {
		errs = append(errs, fmt.Errorf("global min confidence must be in [0,100], got %.1f", p.GlobalMinConfidence))
	}
	if p.LocalMinConfidence < 0 || p.LocalMinConfidence > 100 {
		errs = append(errs, fmt.Errorf("local min confidence must be in [0,100], got %.1f", p.LocalMinConfidence))
	}
	if p.LocalWindow <= 0 {
		errs = append(errs, fmt.Errorf("local window must be > 0, got %s", p.LocalWindow))
	}
	if p.DriftThreshold < 0 {
		errs = append(errs, fmt.Errorf("drift threshold must be >= 0, got %s", p.DriftThreshold))
	}
	if p.VerifyTolerance < 0 {
		errs = append(errs, fmt.Errorf("verify tolerance must be >= 0, got %s", p.VerifyTolerance))
	}
	if p.RequiredVerifications < 1 {
		errs = append(errs, fmt.Errorf("required verifications must be >= 1, got %d", p.RequiredVerifications))
	}
	if p.StabilizeWindow < 0 {
		errs = append(errs, fmt.Errorf("stabilize window must be >= 0, got %s", p.StabilizeWindow))
	}
	return errors.Join(errs...)
}
