package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"enumguard/internal/config"
	"enumguard/internal/devicetree"
	"enumguard/internal/job"
	"enumguard/internal/logging"
	"enumguard/internal/usbflags"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// ensureConfig loads the configuration once. A malformed document never fails
// the command: safe defaults are substituted and the logger reports it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, loadErr := config.Load(c.configPath())
		if loadErr != nil {
			cfg = config.LoadOrDefault(c.configPath(), logging.NewNop())
		}

		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = *c.logLevelFlag
		}
		logger, closer, err := logging.New(logging.Options{
			Level:       level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr", cfg.LogPath()},
		})
		if err != nil {
			c.configErr = fmt.Errorf("init logging: %w", err)
			return
		}
		if loadErr != nil {
			// Reload to report the problem through the configured logger.
			cfg = config.LoadOrDefault(c.configPath(), logger)
		} else {
			cfg.LogWarnings(logger)
		}
		c.config = cfg
		c.logger = logger
		c.logCloser = closer
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) log() *slog.Logger {
	if _, err := c.ensureConfig(); err != nil || c.logger == nil {
		return logging.NewNop()
	}
	return c.logger
}

func (c *commandContext) close() error {
	if c.logCloser == nil {
		return nil
	}
	err := c.logCloser.Close()
	c.logCloser = nil
	return err
}

// requireWritable refuses commands that rewrite the configuration document
// when it was replaced by safe defaults.
func (c *commandContext) requireWritable() (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Degraded {
		return nil, errors.New("configuration document is unusable; fix it before editing the catalog (see the log for details)")
	}
	return cfg, nil
}

// newRunner wires the platform collaborators into a job runner.
func (c *commandContext) newRunner(cfg *config.Config, logger *slog.Logger) (*job.Runner, error) {
	tree, err := devicetree.Open(logger)
	if err != nil {
		return nil, fmt.Errorf("open device tree: %w", err)
	}
	return job.NewRunner(cfg, job.Deps{
		Tree:  tree,
		Flags: openFlagWriter(logger),
	}, logger), nil
}

// openFlagWriter returns the platform flag writer, or one that reports
// ErrUnsupported for every identifier.
func openFlagWriter(logger *slog.Logger) usbflags.Writer {
	store, err := usbflags.Open()
	if err != nil {
		logger.Debug("usb flag store unavailable", logging.Error(err))
		return usbflags.NewMarker(unsupportedStore{err: err}, usbflags.AutoApprove, logger)
	}
	return usbflags.NewMarker(store, usbflags.AutoApprove, logger)
}

type unsupportedStore struct{ err error }

func (s unsupportedStore) HasFlag(string) (bool, error) { return false, s.err }

func (s unsupportedStore) SetFlag(string) error { return s.err }

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
