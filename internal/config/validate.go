package config

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/AcousticSync/pkg/logger"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateController(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	if _, ok := logger.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error, fatal", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateMatcher() error {
	if c.Matcher.MinLiveSeconds <= 0 {
		return errors.New("matcher.min_live_seconds must be positive")
	}
	if c.Matcher.EnergyFloor < 0 || c.Matcher.FlatnessFloor < 0 {
		return errors.New("matcher.energy_floor and matcher.flatness_floor must be >= 0")
	}
	return nil
}

func (c *Config) validateController() error {
	if c.Controller.TickIntervalMs <= 0 {
		return errors.New("controller.tick_interval_ms must be positive")
	}
	if c.Controller.MaxChunks < c.Controller.MinChunks {
		return fmt.Errorf("controller.max_chunks (%d) must be >= controller.min_chunks (%d)",
			c.Controller.MaxChunks, c.Controller.MinChunks)
	}
	if err := c.ControllerParams().Validate(); err != nil {
		return fmt.Errorf("controller: %w", err)
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.SampleRate < 8000 {
		return fmt.Errorf("session.sample_rate must be >= 8000, got %d", c.Session.SampleRate)
	}
	return nil
}

func (c *Config) validateJournal() error {
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.path must be set when journal.enabled is true")
	}
	return nil
}
