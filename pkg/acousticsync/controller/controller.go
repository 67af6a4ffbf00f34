// Package controller implements the polling state machine that turns
// periodic envelope matches into a stable, locked timeline position.
//
// The decision logic lives on SyncState as value transitions (Precheck,
// Plan, Apply, Seek, ForceResync). Controller owns the mutable pieces
// around it: the live buffer, the cue tracker, the matcher and the clock.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/buffer"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/cue"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/envelope"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

// Matcher correlates a live envelope against a master fingerprint.
type Matcher interface {
	Match(live []float64, scan matcher.Scan) matcher.Result
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any) {}
func (nopLogger) Warnf(string, ...any) {}
func (nopLogger) Errorf(string, ...any) {}
func (nopLogger) Debugf(string, ...any) {}

type Config struct {
	Params     Params
	MaxChunks  int
	LiveRateHz int // sample rate of pushed chunks
	EnvRateHz  int // envelope rate; must equal the master's
	Clock      func() time.Time
	Logger     Logger
}

// Controller is safe for concurrent use. Ticks, seeks and resyncs are
// serialized; Push only contends with the buffer's own lock.
type Controller struct {
	mu      sync.Mutex
	state   SyncState
	params  Params
	matcher Matcher
	live    int
	envRate int
	buf     *buffer.Rolling
	cues    *cue.Tracker
	now     func() time.Time
	log     Logger
	last    Report
}

func New(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.EnvRateHz <= 0 {
		cfg.EnvRateHz = envelope.DefaultRateHz
	}

	now := cfg.Clock()
	c := &Controller{
		state:   Initial(now),
		params:  cfg.Params,
		live:    cfg.LiveRateHz,
		envRate: cfg.EnvRateHz,
		buf:     buffer.NewRolling(cfg.MaxChunks),
		cues:    cue.NewTracker(),
		now:     cfg.Clock,
		log:     cfg.Logger,
	}
	c.last = c.state.base(now)
	c.last.Phase = PhaseIdle
	return c
}

// SetMatcher installs the master matcher and the sample rate of live chunks.
func (c *Controller) SetMatcher(m Matcher, liveRateHz int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matcher = m
	if liveRateHz > 0 {
		c.live = liveRateHz
	}
}

// HasMatcher reports whether a master matcher is installed.
func (c *Controller) HasMatcher() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matcher != nil
}

// Push hands one capture block to the rolling buffer.
func (c *Controller) Push(chunk []float64) { c.buf.Push(chunk) }

// Buffered returns the number of chunks waiting in the live buffer.
func (c *Controller) Buffered() int { return c.buf.Len() }

// RegisterCues adds timeline cues reported through Report.DueCues.
func (c *Controller) RegisterCues(cues ...cue.Cue) { c.cues.Register(cues...) }

// State returns a copy of the current state.
func (c *Controller) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Last returns the report of the most recent tick.
func (c *Controller) Last() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Tick runs one polling step. A cancelled ctx aborts the tick before it can
// change any state.
func (c *Controller) Tick(ctx context.Context) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return c.cancelled()
	}

	now := c.now()
	next, r, done := c.state.Precheck(now, c.buf.Len(), c.params)
	if done {
		return c.finish(next, r)
	}

	if c.matcher == nil {
		c.log.Errorf("tick without master fingerprint: %v", matcher.ErrNoMasterFingerprint)
		r = next.base(now)
		r.Phase = PhaseIdle
		r.Status = StatusNoMasterFingerprint
		return c.finish(next, r)
	}

	live := envelope.Extract(c.buf.Snapshot(), c.live, c.envRate)
	scan, _ := next.Plan(now, c.params)
	res := c.matcher.Match(live, scan)

	if ctx.Err() != nil {
		return c.cancelled()
	}

	prevVerifications := 0
	if next.Candidate != nil {
		prevVerifications = next.Candidate.Verifications
	}
	next, r = next.Apply(res, now, c.params)
	c.logTransition(r, prevVerifications)
	return c.finish(next, r)
}

func (c *Controller) finish(next SyncState, r Report) Report {
	c.state = next
	r.DueCues = c.cues.Due(r.PositionSeconds)
	c.last = r
	return r
}

func (c *Controller) cancelled() Report {
	r := c.last
	r.At = c.now()
	r.Status = StatusCancelled
	r.Committed = false
	r.DueCues = nil
	return r
}

func (c *Controller) logTransition(r Report, prevVerifications int) {
	switch r.Status {
	case StatusCommitted:
		c.log.Infof("locked timeline at %.2fs (confidence %.1f%%, drift %.2fs)",
			r.TimelineSeconds, r.ConfidencePercent, r.DriftSeconds)
	case StatusVerifying:
		if r.Verifications <= prevVerifications {
			c.log.Debugf("candidate diverged, restarting verification at %.2fs", r.Match.OffsetSeconds-c.params.LatencyCompensation.Seconds())
		} else {
			c.log.Debugf("candidate %d/%d at %.2fs (confidence %.1f%%)",
				r.Verifications, c.params.RequiredVerifications, r.PositionSeconds, r.ConfidencePercent)
		}
	case StatusWeakSignal, StatusSilentOrFlat:
		if prevVerifications > 0 {
			c.log.Debugf("signal lost during verification (%s, %.1f%%)", r.Status, r.ConfidencePercent)
		}
	case StatusStable:
		c.log.Debugf("local match agrees with timeline (drift %.2fs)", r.DriftSeconds)
	}
}

// Seek sets the believed position and pauses matching for the
// stabilization window. Cues after the new position may fire again.
func (c *Controller) Seek(timelineSeconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.state = c.state.Seek(timelineSeconds, now, c.params)
	rewound := c.cues.Rewind(timelineSeconds)
	c.log.Infof("seek to %.2fs, matching paused for %s (%d cues rewound)",
		timelineSeconds, c.params.StabilizeWindow, rewound)
}

// ForceResync drops the lock, empties the live buffer and forces the next
// tick into a global scan.
func (c *Controller) ForceResync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = c.state.ForceResync()
	c.buf.Reset()
	c.log.Infof("forced resync, live buffer cleared")
}

// Reset discards all session state: buffer, candidate, lock and fired cues.
// The matcher is kept.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.state = Initial(now)
	c.buf.Reset()
	c.cues.Reset()
	c.last = c.state.base(now)
	c.last.Phase = PhaseIdle
}
