package acousticsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/controller"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/envelope"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
	"github.com/himanishpuri/AcousticSync/pkg/logger"
)

// Session ties one reference track to a live audio stream. It is the
// default implementation of Syncer.
type Session struct {
	config *Config
	log    Logger
	ctrl   *controller.Controller

	mu        sync.Mutex // guards everything below
	storage   Storage
	sessionID string
	master    envelope.Fingerprint
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ Syncer = (*Session)(nil)

// maxDurationSlack is how far, in seconds, a declared reference duration may
// run past the decoded samples.
const maxDurationSlack = 1.0

func NewSession(opts ...Option) (*Session, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().With("sync")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", cfg.TickInterval)
	}
	if cfg.LiveSampleRate < 0 {
		return nil, fmt.Errorf("live sample rate: %w", ErrInvalidSampleRate)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid controller params: %w", err)
	}

	stor := cfg.Storage
	if stor == nil && cfg.JournalPath != "" {
		var err error
		stor, err = NewSQLiteStorage(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	ctrl := controller.New(controller.Config{
		Params:     cfg.Params,
		MaxChunks:  cfg.BufferCapacity,
		LiveRateHz: cfg.LiveSampleRate,
		Clock:      cfg.Clock,
		Logger:     cfg.Logger,
	})

	return &Session{
		config:  cfg,
		log:     cfg.Logger,
		ctrl:    ctrl,
		storage: stor,
	}, nil
}

// BuildMasterFingerprint reduces the full reference track to its envelope
// and installs it as the match target. Any previous master is replaced and
// the session state is reset.
func (s *Session) BuildMasterFingerprint(samples []float64, sourceRateHz int, durationSeconds float64) error {
	if sourceRateHz <= 0 {
		return fmt.Errorf("reference: %w", ErrInvalidSampleRate)
	}
	if len(samples) == 0 || durationSeconds <= 0 {
		return ErrEmptyReference
	}
	span := float64(len(samples)) / float64(sourceRateHz)
	if durationSeconds > span+maxDurationSlack {
		return fmt.Errorf("%w: %.2fs declared, %.2fs of samples", ErrInvalidDuration, durationSeconds, span)
	}

	fp := envelope.Build(samples, sourceRateHz, durationSeconds)
	m, err := matcher.New(fp, s.config.Thresholds)
	if err != nil {
		return fmt.Errorf("building matcher: %w", err)
	}

	liveRate := s.config.LiveSampleRate
	if liveRate == 0 {
		liveRate = sourceRateHz
	}
	s.ctrl.SetMatcher(m, liveRate)
	s.ctrl.Reset()
	s.log.Infof("Built master fingerprint: %d points over %.1fs (%d Hz source)",
		len(fp.Envelope), durationSeconds, sourceRateHz)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.master = fp
	s.openJournal(int(durationSeconds * 1000))
	return nil
}

// openJournal starts a new journal session. Callers hold s.mu.
func (s *Session) openJournal(durationMs int) {
	if s.storage == nil {
		return
	}
	if s.sessionID != "" {
		if err := s.storage.EndSession(s.sessionID); err != nil {
			s.log.Warnf("Failed to end journal session %s: %v", s.sessionID, err)
		}
		s.sessionID = ""
	}
	id, err := s.storage.RegisterSession(s.config.Title, durationMs)
	if err != nil {
		s.log.Warnf("Failed to register journal session: %v", err)
		return
	}
	s.sessionID = id
	s.log.Debugf("Journal session %s", id)
}

// PushLiveChunk appends one capture block to the live buffer.
func (s *Session) PushLiveChunk(samples []float64) {
	s.ctrl.Push(samples)
}

func (s *Session) RegisterCues(cues ...Cue) {
	s.ctrl.RegisterCues(cues...)
}

// Tick runs one polling step. A tick never fails: problems surface as the
// report's status. Once ctx is done nothing is journaled or handed to the
// report handler, even if the controller finished the tick.
func (s *Session) Tick(ctx context.Context) Report {
	r := s.ctrl.Tick(ctx)
	if ctx.Err() != nil {
		return r
	}
	if r.Committed {
		s.record(EventCommit, r.TimelineSeconds, r.ConfidencePercent)
	}
	if s.config.OnReport != nil {
		s.config.OnReport(r)
	}
	return r
}

// Seek tells the session the host jumped playback to timelineSeconds.
func (s *Session) Seek(timelineSeconds float64) {
	s.ctrl.Seek(timelineSeconds)
	s.record(EventSeek, timelineSeconds, 0)
}

// ForceResync drops the lock and rescans the whole master on fresh audio.
func (s *Session) ForceResync() {
	s.ctrl.ForceResync()
	s.record(EventResync, s.ctrl.State().TimelineSeconds, 0)
}

func (s *Session) record(kind EventKind, timelineSeconds, confidence float64) {
	s.mu.Lock()
	stor, id := s.storage, s.sessionID
	s.mu.Unlock()

	if stor == nil || id == "" {
		return
	}
	if err := stor.RecordEvent(id, kind, timelineSeconds, confidence); err != nil {
		s.log.Warnf("Failed to journal %s event: %v", kind, err)
	}
}

// Start runs Tick every TickInterval until ctx is done or Stop is called.
func (s *Session) Start(ctx context.Context) error {
	if !s.ctrl.HasMatcher() {
		return ErrNoMasterFingerprint
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(loopCtx, done)
	s.log.Infof("Sync loop started (every %s)", s.config.TickInterval)
	return nil
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Stop cancels the loop, waits for an in-flight tick and discards the live
// buffer, any candidate and the lock. The master fingerprint is kept.
func (s *Session) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done

	s.ctrl.Reset()
	s.log.Infof("Sync loop stopped")
	return nil
}

// Running reports whether the ticker loop is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// State returns the report of the most recent tick.
func (s *Session) State() Report {
	return s.ctrl.Last()
}

// SessionID returns the journal session ID, or "" without a journal.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Master returns the installed master fingerprint.
func (s *Session) Master() envelope.Fingerprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.master
}

// Close stops the loop and releases the journal.
func (s *Session) Close() error {
	if s.Running() {
		s.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storage == nil {
		return nil
	}
	if s.sessionID != "" {
		if err := s.storage.EndSession(s.sessionID); err != nil {
			s.log.Warnf("Failed to end journal session %s: %v", s.sessionID, err)
		}
		s.sessionID = ""
	}
	err := s.storage.Close()
	s.storage = nil
	return err
}
