package main

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/encbridge/config"
	"github.com/wippyai/encbridge/internal/logging"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	once   sync.Once
	config config.Config
	logger *zap.Logger
	err    error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

// ensure loads the configuration and installs the logger once per process.
func (c *commandContext) ensure() (config.Config, error) {
	c.once.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.err = err
			return
		}
		if v := strings.TrimSpace(*c.logLevelFlag); v != "" {
			cfg.Log.Level = v
		}
		if v := strings.TrimSpace(*c.logFormatFlag); v != "" {
			cfg.Log.Format = v
		}

		l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			c.err = err
			return
		}
		logging.Install(l)

		c.config = cfg
		c.logger = l
	})
	return c.config, c.err
}

func (c *commandContext) log() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}
