package controller

import (
	"math"
	"time"
)

// CandidateLock is a provisional timeline position waiting for a second,
// consistent observation before it is committed.
type CandidateLock struct {
	EstimatedSeconds float64
	ObservedAt       time.Time
	Verifications    int
}

// NewCandidate records a first observation.
func NewCandidate(estimatedSeconds float64, at time.Time) CandidateLock {
	return CandidateLock{EstimatedSeconds: estimatedSeconds, ObservedAt: at, Verifications: 1}
}

// Expected extrapolates the candidate to now, assuming playback kept running.
func (c CandidateLock) Expected(now time.Time) float64 {
	return c.EstimatedSeconds + now.Sub(c.ObservedAt).Seconds()
}

// Agrees reports whether an observation at now lies within tolerance of
// the extrapolated candidate. The bound is inclusive.
func (c CandidateLock) Agrees(observedSeconds float64, now time.Time, tolerance time.Duration) bool {
	return math.Abs(observedSeconds-c.Expected(now)) <= tolerance.Seconds()
}

// Confirm returns the candidate advanced by one verification and re-anchored
// on the newest observation.
func (c CandidateLock) Confirm(observedSeconds float64, now time.Time) CandidateLock {
	return CandidateLock{
		EstimatedSeconds: observedSeconds,
		ObservedAt:       now,
		Verifications:    c.Verifications + 1,
	}
}

// Observe folds a new observation into an optional prior candidate: an
// agreeing observation confirms it, anything else starts over at one.
func Observe(prior *CandidateLock, observedSeconds float64, now time.Time, tolerance time.Duration) CandidateLock {
	if prior != nil && prior.Agrees(observedSeconds, now, tolerance) {
		return prior.Confirm(observedSeconds, now)
	}
	return NewCandidate(observedSeconds, now)
}
