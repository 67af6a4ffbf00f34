// Package matcher locates a live energy envelope inside the master envelope
// by Pearson correlation.
package matcher

import (
	"errors"
	"math"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/envelope"
	"gonum.org/v1/gonum/floats"
)

// ErrNoMasterFingerprint is returned when a match is requested before a
// master envelope exists.
var ErrNoMasterFingerprint = errors.New("no master fingerprint built")

// ------------------------ TUNABLES ------------------------
const (
	// MinLiveSeconds is the shortest live envelope worth correlating.
	MinLiveSeconds = 2.0

	// EnergyFloor rejects live envelopes whose RMS is effectively silence.
	EnergyFloor = 0.005

	// FlatnessFloor rejects live envelopes with almost no variance
	// (constant hum correlates with any flat stretch of the master).
	FlatnessFloor = 0.0005
)

// Outcome tells why a Result carries the confidence it does.
type Outcome int

const (
	OutcomeMatched Outcome = iota
	OutcomeInsufficientSignal
	OutcomeSilentOrFlat
	OutcomeNoCandidates
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeInsufficientSignal:
		return "insufficient_signal"
	case OutcomeSilentOrFlat:
		return "silent_or_flat"
	case OutcomeNoCandidates:
		return "no_candidates"
	default:
		return "unknown"
	}
}

// Result is the best alignment of a live envelope against the master.
type Result struct {
	OffsetSeconds     float64 // timeline position of the END of the live window
	ConfidencePercent float64 // max(0, pearson r) * 100
	Outcome           Outcome
	StartIndex        int // master index where the best window starts
	Candidates        int // number of offsets evaluated
}

// Scan selects the master range a match is searched over.
type Scan struct {
	HintSeconds  float64
	WidthSeconds float64
	hasHint      bool
}

// GlobalScan searches the whole master.
func GlobalScan() Scan { return Scan{} }

// LocalScan searches widthSeconds either side of the window ending at hintSeconds.
func LocalScan(hintSeconds, widthSeconds float64) Scan {
	return Scan{HintSeconds: hintSeconds, WidthSeconds: widthSeconds, hasHint: true}
}

// IsGlobal reports whether the scan covers every offset.
func (s Scan) IsGlobal() bool {
	return !s.hasHint || s.WidthSeconds <= 0
}

// Thresholds gate which live envelopes are considered at all.
type Thresholds struct {
	MinLiveSeconds float64
	EnergyFloor    float64
	FlatnessFloor  float64
}

// DefaultThresholds returns the package tunables.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLiveSeconds: MinLiveSeconds,
		EnergyFloor:    EnergyFloor,
		FlatnessFloor:  FlatnessFloor,
	}
}

// Matcher owns a master fingerprint and correlates live envelopes against it.
// The master is never modified after New returns, so a Matcher is safe for
// concurrent use.
type Matcher struct {
	master     []float64
	rateHz     int
	duration   float64
	thresholds Thresholds
}

// New copies the master envelope. An empty master is ErrNoMasterFingerprint.
func New(master envelope.Fingerprint, thresholds Thresholds) (*Matcher, error) {
	if len(master.Envelope) == 0 {
		return nil, ErrNoMasterFingerprint
	}
	rate := master.RateHz
	if rate <= 0 {
		rate = envelope.DefaultRateHz
	}
	env := make([]float64, len(master.Envelope))
	copy(env, master.Envelope)

	return &Matcher{
		master:     env,
		rateHz:     rate,
		duration:   master.DurationSeconds,
		thresholds: thresholds,
	}, nil
}

// Len returns the number of master envelope points.
func (m *Matcher) Len() int { return len(m.master) }

// RateHz returns the envelope rate shared by master and live fingerprints.
func (m *Matcher) RateHz() int { return m.rateHz }

// DurationSeconds returns the duration of the reference track.
func (m *Matcher) DurationSeconds() float64 { return m.duration }

// FindMatch correlates live against the master envelope at the default
// rate and thresholds. A nil or empty master is ErrNoMasterFingerprint.
func FindMatch(master, live []float64, scan Scan) (Result, error) {
	if len(master) == 0 {
		return Result{}, ErrNoMasterFingerprint
	}
	m := &Matcher{master: master, rateHz: envelope.DefaultRateHz, thresholds: DefaultThresholds()}
	return m.Match(live, scan), nil
}

// Match searches for the master offset maximizing the Pearson correlation
// with live. The search is exhaustive over the selected range.
func (m *Matcher) Match(live []float64, scan Scan) Result {
	n := len(live)
	total := len(m.master)
	rate := float64(m.rateHz)

	if n < int(math.Ceil(m.thresholds.MinLiveSeconds*rate)) {
		return Result{Outcome: OutcomeInsufficientSignal}
	}

	// live-side statistics, computed once
	nf := float64(n)
	sumL := floats.Sum(live)
	sumSqL := floats.Dot(live, live)
	meanL := sumL / nf
	rmsL := math.Sqrt(sumSqL / nf)
	varL := sumSqL/nf - meanL*meanL
	if rmsL < m.thresholds.EnergyFloor || varL < m.thresholds.FlatnessFloor {
		return Result{Outcome: OutcomeSilentOrFlat}
	}

	denL := math.Sqrt(math.Max(0, sumSqL-nf*meanL*meanL))
	if denL == 0 {
		return Result{Outcome: OutcomeSilentOrFlat}
	}

	lo, hi := 0, total-n
	if !scan.IsGlobal() {
		widthIdx := int(math.Floor(scan.WidthSeconds * rate))
		targetStart := int(math.Floor(scan.HintSeconds*rate)) - n
		lo = max(0, targetStart-widthIdx)
		hi = min(total-n, targetStart+widthIdx)
	}
	if hi < lo {
		return Result{Outcome: OutcomeNoCandidates}
	}

	bestR := math.Inf(-1)
	bestIdx := -1
	for i := lo; i <= hi; i++ {
		window := m.master[i : i+n]
		var sumM, sumSqM, cross float64
		for j, v := range window {
			sumM += v
			sumSqM += v * v
			cross += v * live[j]
		}
		meanM := sumM / nf
		denM := math.Sqrt(math.Max(0, sumSqM-nf*meanM*meanM))
		if denM <= 0 {
			continue
		}
		r := (cross - nf*meanL*meanM) / (denL * denM)
		if r > bestR {
			bestR = r
			bestIdx = i
		}
	}

	candidates := hi - lo + 1
	if bestIdx < 0 {
		// every window in range was flat
		return Result{Outcome: OutcomeNoCandidates, Candidates: candidates}
	}

	return Result{
		OffsetSeconds:     float64(bestIdx+n) / rate,
		ConfidencePercent: math.Min(1, math.Max(0, bestR)) * 100,
		Outcome:           OutcomeMatched,
		StartIndex:        bestIdx,
		Candidates:        candidates,
	}
}
