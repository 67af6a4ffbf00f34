package controller

import (
	"math"
	"testing"
	"time"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func hit(offset, confidence float64) matcher.Result {
	return matcher.Result{OffsetSeconds: offset, ConfidencePercent: confidence, Outcome: matcher.OutcomeMatched}
}

func TestPrecheck(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name       string
		state      SyncState
		now        time.Time
		buffered   int
		wantDone   bool
		wantPhase  Phase
		wantStatus Status
	}{
		{
			name:       "locked",
			state:      SyncState{Hold: PermanentLock()},
			now:        epoch,
			buffered:   90,
			wantDone:   true,
			wantPhase:  PhaseLocked,
			wantStatus: StatusLocked,
		},
		{
			name:       "stabilizing",
			state:      SyncState{Hold: HoldUntilTime(epoch.Add(3 * time.Second))},
			now:        epoch,
			buffered:   90,
			wantDone:   true,
			wantPhase:  PhaseStabilizing,
			wantStatus: StatusStabilizing,
		},
		{
			name:     "stabilization expired",
			state:    SyncState{Hold: HoldUntilTime(epoch)},
			now:      epoch,
			buffered: 30,
			wantDone: false,
		},
		{
			name:       "collecting",
			state:      Initial(epoch),
			now:        epoch,
			buffered:   29,
			wantDone:   true,
			wantPhase:  PhaseCollecting,
			wantStatus: StatusInsufficientSample,
		},
		{
			name:     "ready",
			state:    Initial(epoch),
			now:      epoch,
			buffered: 30,
			wantDone: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, r, done := tt.state.Precheck(tt.now, tt.buffered, p)
			if done != tt.wantDone {
				t.Fatalf("Expected done=%v, got %v", tt.wantDone, done)
			}
			if !done {
				if next.Hold.Kind != HoldNone {
					t.Errorf("Expired or absent hold should clear, got %v", next.Hold.Kind)
				}
				return
			}
			if r.Phase != tt.wantPhase || r.Status != tt.wantStatus {
				t.Errorf("Expected %v/%v, got %v/%v", tt.wantPhase, tt.wantStatus, r.Phase, r.Status)
			}
		})
	}
}

func TestPrecheckLockedReportsFullConfidence(t *testing.T) {
	s := SyncState{Hold: PermanentLock(), TimelineSeconds: 42, Mode: ModeLocal}
	_, r, _ := s.Precheck(epoch, 0, DefaultParams())
	if r.ConfidencePercent != 100 {
		t.Errorf("Expected 100%% while locked, got %.1f", r.ConfidencePercent)
	}
	if r.TimelineSeconds != 42 {
		t.Errorf("Expected timeline 42, got %.2f", r.TimelineSeconds)
	}
}

func TestPrecheckStabilizingRemaining(t *testing.T) {
	s := SyncState{Hold: HoldUntilTime(epoch.Add(5 * time.Second))}
	_, r, _ := s.Precheck(epoch.Add(2*time.Second), 90, DefaultParams())
	if r.StabilizeRemaining != 3*time.Second {
		t.Errorf("Expected 3s remaining, got %s", r.StabilizeRemaining)
	}
}

func TestPlan(t *testing.T) {
	p := DefaultParams()

	scan, minConf := Initial(epoch).Plan(epoch, p)
	if !scan.IsGlobal() || minConf != 30 {
		t.Errorf("Global mode should plan a full scan at 30%%, got %+v / %.0f", scan, minConf)
	}

	local := SyncState{Mode: ModeLocal, TimelineSeconds: 50, AnchoredAt: epoch}
	scan, minConf = local.Plan(epoch.Add(4*time.Second), p)
	if scan.IsGlobal() || minConf != 40 {
		t.Errorf("Local mode should plan a windowed scan at 40%%, got %+v / %.0f", scan, minConf)
	}
	if scan.HintSeconds != 54 || scan.WidthSeconds != 120 {
		t.Errorf("Expected hint 54 width 120, got %.1f / %.1f", scan.HintSeconds, scan.WidthSeconds)
	}
}

func TestApplyWeakSignalClearsCandidate(t *testing.T) {
	c := NewCandidate(30, epoch)
	s := SyncState{Mode: ModeGlobal, Candidate: &c, AnchoredAt: epoch}

	next, r := s.Apply(hit(40, 29.9), epoch.Add(2*time.Second), DefaultParams())
	if next.Candidate != nil {
		t.Error("Weak signal should clear the pending candidate")
	}
	if r.Status != StatusWeakSignal || r.Phase != PhaseScanning {
		t.Errorf("Expected scanning/weak_signal, got %v/%v", r.Phase, r.Status)
	}
	if s.Candidate == nil {
		t.Error("Apply must not modify its receiver")
	}
}

func TestApplySilentOutcome(t *testing.T) {
	next, r := Initial(epoch).Apply(matcher.Result{Outcome: matcher.OutcomeSilentOrFlat}, epoch, DefaultParams())
	if r.Status != StatusSilentOrFlat {
		t.Errorf("Expected silent_or_flat, got %v", r.Status)
	}
	if next.Candidate != nil || next.Locked() {
		t.Error("Silent input must not create a candidate")
	}
}

func TestApplyGlobalVerifiesThenCommits(t *testing.T) {
	p := DefaultParams()
	s := Initial(epoch)

	s, r := s.Apply(hit(36.5, 80), epoch, p)
	if r.Phase != PhaseVerifying || r.Verifications != 1 {
		t.Fatalf("Expected verifying(1), got %v(%d)", r.Phase, r.Verifications)
	}
	if s.Candidate == nil || s.Candidate.EstimatedSeconds != 36 {
		t.Fatalf("Expected candidate at 36.0 after latency compensation, got %+v", s.Candidate)
	}

	now := epoch.Add(2 * time.Second)
	s, r = s.Apply(hit(38.5, 80), now, p)
	if !r.Committed || r.Phase != PhaseLocked || r.Status != StatusCommitted {
		t.Fatalf("Expected commit, got %v/%v", r.Phase, r.Status)
	}
	if !s.Locked() || s.Mode != ModeLocal || s.Candidate != nil {
		t.Errorf("Commit should lock, switch to local and clear candidate: %+v", s)
	}
	if s.TimelineSeconds != 38 || r.TimelineSeconds != 38 {
		t.Errorf("Expected timeline 38.0, got %.2f", s.TimelineSeconds)
	}
	if !s.AnchoredAt.Equal(now) {
		t.Errorf("Commit should anchor the timeline at the commit instant")
	}
}

func TestApplyLocalStable(t *testing.T) {
	p := DefaultParams()
	c := NewCandidate(90, epoch)
	s := SyncState{Mode: ModeLocal, TimelineSeconds: 50, AnchoredAt: epoch, Candidate: &c}
	now := epoch.Add(2 * time.Second)

	// believed position 52.0, adjusted 54.5 - 0.5 = 54.0, drift 2.0
	next, r := s.Apply(hit(54.5, 45), now, p)
	if r.Status != StatusStable {
		t.Fatalf("Expected stable, got %v", r.Status)
	}
	if next.Candidate != nil {
		t.Error("Stable local match should clear any candidate")
	}
	if next.Locked() || next.TimelineSeconds != 50 {
		t.Errorf("Stable local match must not commit: %+v", next)
	}
	if math.Abs(r.DriftSeconds-2) > 1e-9 {
		t.Errorf("Expected drift 2.0, got %f", r.DriftSeconds)
	}
}

func TestApplyLocalDriftNeedsVerification(t *testing.T) {
	p := DefaultParams()
	s := SyncState{Mode: ModeLocal, TimelineSeconds: 50, AnchoredAt: epoch}

	next, r := s.Apply(hit(70.5, 60), epoch, p)
	if r.Phase != PhaseVerifying || next.Candidate == nil {
		t.Fatalf("Drifted local match should start verification, got %v", r.Phase)
	}
	next, r = next.Apply(hit(72.5, 60), epoch.Add(2*time.Second), p)
	if !r.Committed || next.TimelineSeconds != 72 {
		t.Errorf("Expected commit at 72.0, got %v at %.2f", r.Status, next.TimelineSeconds)
	}
}

func TestApplyLocalThreshold(t *testing.T) {
	s := SyncState{Mode: ModeLocal, TimelineSeconds: 10, AnchoredAt: epoch}
	// 35% passes the global threshold but not the local one.
	_, r := s.Apply(hit(10.5, 35), epoch, DefaultParams())
	if r.Status != StatusWeakSignal {
		t.Errorf("Expected weak_signal below local minimum, got %v", r.Status)
	}
}

func TestSeek(t *testing.T) {
	p := DefaultParams()
	c := NewCandidate(5, epoch)
	s := SyncState{Mode: ModeLocal, Hold: PermanentLock(), Candidate: &c, TimelineSeconds: 99}

	next := s.Seek(12, epoch, p)
	if next.Locked() {
		t.Error("Seek should drop the permanent lock")
	}
	if next.Hold.Kind != HoldUntil || !next.Hold.Until.Equal(epoch.Add(5*time.Second)) {
		t.Errorf("Seek should hold for 5s, got %+v", next.Hold)
	}
	if next.TimelineSeconds != 12 || next.Candidate != nil {
		t.Errorf("Seek should set timeline and clear candidate: %+v", next)
	}
	if next.Mode != ModeLocal {
		t.Errorf("Seek keeps the scan mode, got %v", next.Mode)
	}
}

func TestStateForceResync(t *testing.T) {
	c := NewCandidate(5, epoch)
	s := SyncState{Mode: ModeLocal, Hold: PermanentLock(), Candidate: &c, TimelineSeconds: 99}

	next := s.ForceResync()
	if next.Locked() || next.Mode != ModeGlobal || next.Candidate != nil {
		t.Errorf("ForceResync should unlock, go global and clear candidate: %+v", next)
	}
	if next.TimelineSeconds != 99 {
		t.Errorf("ForceResync keeps the believed position, got %.2f", next.TimelineSeconds)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("Default params should validate: %v", err)
	}

	p := DefaultParams()
	p.MinChunks = 0
	p.GlobalMinConfidence = 120
	p.RequiredVerifications = 0
	if err := p.Validate(); err == nil {
		t.Error("Expected validation error")
	}
}
