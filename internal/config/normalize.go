package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment overrides, applied after the file is parsed.
const (
	envJournalPath = "ACOUSTIC_JOURNAL_PATH"
	envTempDir     = "ACOUSTIC_TEMP_DIR"
	envSampleRate  = "ACOUSTIC_SAMPLE_RATE"
	envLogLevel    = "ACOUSTIC_LOG_LEVEL"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}

	var err error
	if c.Session.TempDir, err = expandPath(c.Session.TempDir); err != nil {
		return fmt.Errorf("session.temp_dir: %w", err)
	}
	if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}

	c.Session.Title = strings.TrimSpace(c.Session.Title)
	if c.Session.Title == "" {
		c.Session.Title = defaultTitle
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv(envJournalPath); ok {
		// naming a journal implies wanting one
		c.Journal.Path = v
		c.Journal.Enabled = true
	}
	if v, ok := lookupEnv(envTempDir); ok {
		c.Session.TempDir = v
	}
	if v, ok := lookupEnv(envSampleRate); ok {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envSampleRate, err)
		}
		c.Session.SampleRate = rate
	}
	if v, ok := lookupEnv(envLogLevel); ok {
		c.Logging.Level = v
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
