// Package common provides shared utilities for command implementations.
package common

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/evidence/internal/config"
	"github.com/jonesrussell/north-cloud/evidence/internal/logger"
)

// ErrConfigRequired is returned when a command runs without configuration.
var ErrConfigRequired = errors.New("config is required")

// CommandDeps holds the dependencies every command needs.
type CommandDeps struct {
	Logger logger.Logger
	Config *config.Config
}

// NewCommandDeps loads the configuration named by --config (or
// EVIDENCE_CONFIG) and builds the logger. --debug forces debug logging.
func NewCommandDeps() (CommandDeps, error) {
	path := viper.GetString("config")
	if path == "" {
		path = config.GetConfigPath(config.DefaultConfigPath)
	}

	cfg, err := config.LoadApp(path)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}
	if viper.GetBool("debug") {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	return CommandDeps{Logger: log, Config: cfg}, nil
}
