package acousticsync

import (
	"time"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/buffer"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/controller"
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/matcher"
)

type Config struct {
	Title          string
	JournalPath    string // empty disables the journal unless Storage is set
	TickInterval   time.Duration
	BufferCapacity int
	LiveSampleRate int // 0 means "same as the reference"
	Params         controller.Params
	Thresholds     matcher.Thresholds
	Clock          func() time.Time
	OnReport       func(Report)
	Logger         Logger
	Storage        Storage
}

type Option func(*Config)

func WithSessionTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

func WithJournalPath(path string) Option {
	return func(c *Config) {
		c.JournalPath = path
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(c *Config) {
		c.TickInterval = d
	}
}

func WithBufferCapacity(chunks int) Option {
	return func(c *Config) {
		c.BufferCapacity = chunks
	}
}

func WithLiveSampleRate(rate int) Option {
	return func(c *Config) {
		c.LiveSampleRate = rate
	}
}

func WithControllerParams(p controller.Params) Option {
	return func(c *Config) {
		c.Params = p
	}
}

func WithMatchThresholds(t matcher.Thresholds) Option {
	return func(c *Config) {
		c.Thresholds = t
	}
}

// WithClock replaces time.Now for every timing decision. The ticker that
// drives Start still runs on wall time.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Clock = now
	}
}

// WithReportHandler registers a callback invoked after every tick.
func WithReportHandler(fn func(Report)) Option {
	return func(c *Config) {
		c.OnReport = fn
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func defaultConfig() *Config {
	return &Config{
		Title:          "untitled",
		TickInterval:   controller.DefaultTickInterval,
		BufferCapacity: buffer.DefaultMaxChunks,
		Params:         controller.DefaultParams(),
		Thresholds:     matcher.DefaultThresholds(),
		Clock:          time.Now,
	}
}
