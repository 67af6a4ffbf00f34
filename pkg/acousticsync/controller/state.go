package controller

import (
	"math"
	"time"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

// Mode selects how much of the master a tick searches.
type Mode int

const (
	ModeGlobal Mode = iota
	ModeLocal
)

func (m Mode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "global"
}

// HoldKind tags what, if anything, suspends matching.
type HoldKind int

const (
	HoldNone HoldKind = iota
	HoldUntil
	HoldLocked
)

// Hold suspends matching either until a deadline or permanently.
type Hold struct {
	Kind  HoldKind
	Until time.Time // only meaningful for HoldUntil
}

func NoHold() Hold { return Hold{} }

func HoldUntilTime(t time.Time) Hold { return Hold{Kind: HoldUntil, Until: t} }

func PermanentLock() Hold { return Hold{Kind: HoldLocked} }

// SyncState is the controller's authoritative belief. Every transition
// is a method returning a new value; the receiver is never modified.
type SyncState struct {
	Mode            Mode
	Hold            Hold
	Candidate       *CandidateLock
	TimelineSeconds float64
	// AnchoredAt is the wall-clock instant TimelineSeconds was last set.
	AnchoredAt time.Time
}

// Initial is the state a session starts in: global scanning from zero.
func Initial(now time.Time) SyncState {
	return SyncState{Mode: ModeGlobal, AnchoredAt: now}
}

// Position extrapolates the believed playback position to now.
func (s SyncState) Position(now time.Time) float64 {
	if s.AnchoredAt.IsZero() {
		return s.TimelineSeconds
	}
	return s.TimelineSeconds + now.Sub(s.AnchoredAt).Seconds()
}

// Locked reports whether the permanent lock is held.
func (s SyncState) Locked() bool { return s.Hold.Kind == HoldLocked }

func (s SyncState) clone() SyncState {
	next := s
	if s.Candidate != nil {
		c := *s.Candidate
		next.Candidate = &c
	}
	return next
}

func (s SyncState) base(now time.Time) Report {
	r := Report{
		At:              now,
		Mode:            s.Mode,
		TimelineSeconds: s.TimelineSeconds,
		PositionSeconds: s.Position(now),
	}
	if s.Candidate != nil {
		r.Verifications = s.Candidate.Verifications
	}
	return r
}

// Precheck handles every tick that must not run the matcher: the permanent
// lock, an open stabilization window and a short buffer. When done is true
// the returned report is final for this tick.
func (s SyncState) Precheck(now time.Time, bufferedChunks int, p Params) (next SyncState, r Report, done bool) {
	next = s.clone()

	switch s.Hold.Kind {
	case HoldLocked:
		r = s.base(now)
		r.Phase = PhaseLocked
		r.Status = StatusLocked
		r.ConfidencePercent = 100
		return next, r, true
	case HoldUntil:
		if now.Before(s.Hold.Until) {
			r = s.base(now)
			r.Phase = PhaseStabilizing
			r.Status = StatusStabilizing
			r.StabilizeRemaining = s.Hold.Until.Sub(now)
			return next, r, true
		}
		next.Hold = NoHold()
	}

	if bufferedChunks < p.MinChunks {
		r = next.base(now)
		r.Phase = PhaseCollecting
		r.Status = StatusInsufficientSample
		return next, r, true
	}
	return next, Report{}, false
}

// Plan returns the scan a tick in this state should run and the confidence
// a result needs to be considered.
func (s SyncState) Plan(now time.Time, p Params) (matcher.Scan, float64) {
	if s.Mode == ModeLocal {
		return matcher.LocalScan(s.Position(now), p.LocalWindow.Seconds()), p.LocalMinConfidence
	}
	return matcher.GlobalScan(), p.GlobalMinConfidence
}

// Apply folds a match result into the state.
func (s SyncState) Apply(res matcher.Result, now time.Time, p Params) (SyncState, Report) {
	next := s.clone()
	_, minConfidence := s.Plan(now, p)

	r := s.base(now)
	r.Phase = PhaseScanning
	r.ConfidencePercent = res.ConfidencePercent
	match := res
	r.Match = &match

	if res.Outcome != matcher.OutcomeMatched || res.ConfidencePercent < minConfidence {
		// losing the signal mid-verification restarts verification
		next.Candidate = nil
		r.Verifications = 0
		r.Status = weakStatus(res.Outcome)
		return next, r
	}

	adjusted := res.OffsetSeconds - p.LatencyCompensation.Seconds()
	drift := math.Abs(adjusted - s.Position(now))
	r.DriftSeconds = drift

	if s.Mode == ModeLocal && drift <= p.DriftThreshold.Seconds() {
		next.Candidate = nil
		r.Verifications = 0
		r.Status = StatusStable
		return next, r
	}

	cand := Observe(s.Candidate, adjusted, now, p.VerifyTolerance)
	if cand.Verifications >= p.RequiredVerifications {
		next = next.commit(adjusted, now)
		r = next.base(now)
		r.Phase = PhaseLocked
		r.Status = StatusCommitted
		r.ConfidencePercent = res.ConfidencePercent
		r.DriftSeconds = drift
		r.Committed = true
		r.Match = &match
		return next, r
	}

	next.Candidate = &cand
	r.Phase = PhaseVerifying
	r.Status = StatusVerifying
	r.Verifications = cand.Verifications
	return next, r
}

func (s SyncState) commit(timelineSeconds float64, now time.Time) SyncState {
	s.TimelineSeconds = timelineSeconds
	s.AnchoredAt = now
	s.Mode = ModeLocal
	s.Hold = PermanentLock()
	s.Candidate = nil
	return s
}

// Seek jumps the believed position and pauses matching for the
// stabilization window. The permanent lock is dropped; the mode is kept.
func (s SyncState) Seek(timelineSeconds float64, now time.Time, p Params) SyncState {
	next := s
	next.TimelineSeconds = timelineSeconds
	next.AnchoredAt = now
	next.Hold = HoldUntilTime(now.Add(p.StabilizeWindow))
	next.Candidate = nil
	return next
}

// ForceResync drops the lock and any candidate and forces a global scan.
// The believed position is kept until a new commit replaces it.
func (s SyncState) ForceResync() SyncState {
	next := s
	next.Mode = ModeGlobal
	next.Hold = NoHold()
	next.Candidate = nil
	return next
}

func weakStatus(o matcher.Outcome) Status {
	switch o {
	case matcher.OutcomeSilentOrFlat:
		return StatusSilentOrFlat
	case matcher.OutcomeInsufficientSignal:
		return StatusInsufficientSample
	default:
		return StatusWeakSignal
	}
}
