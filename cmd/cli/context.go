package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSync/internal/audio"
	"github.com/himanishpuri/AcousticSync/internal/config"
	"github.com/himanishpuri/AcousticSync/pkg/logger"
)

type commandContext struct {
	configFlag string
	tempFlag   string
	rateFlag   int

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// ensureConfig loads the config file once and layers the global flags on top.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if c.tempFlag != "" {
			cfg.Session.TempDir = c.tempFlag
		}
		if c.rateFlag > 0 {
			cfg.Session.SampleRate = c.rateFlag
		}
		if lvl, ok := logger.ParseLevel(cfg.Logging.Level); ok {
			logger.SetLevel(lvl)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loadAudio decodes path to mono samples using the session settings.
func (c *commandContext) loadAudio(ctx context.Context, path string) ([]float64, int, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, 0, err
	}
	samples, rate, err := audio.LoadMono(ctx, path, cfg.Session.TempDir, cfg.Session.SampleRate)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", path, err)
	}
	if len(samples) == 0 || rate <= 0 {
		return nil, 0, fmt.Errorf("load %s: no audio", path)
	}
	return samples, rate, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
