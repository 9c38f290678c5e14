// Package cmdutil holds the plumbing shared by the dna subcommands: opening
// the engine for the selected project, creating the logger and printing
// styled or JSON output.
package cmdutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fraim-ai/fraim-toolkit/internal/config"
	"github.com/fraim-ai/fraim-toolkit/internal/engine"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/logging"
)

// Persistent flag names registered on the root command.
const (
	FlagProject = "project"
	FlagConfig  = "config"
)

// Env is an opened project for the duration of one command.
type Env struct {
	Engine *engine.Engine
	Logger *logging.Logger

	stopAudit func()
}

// OpenOptions controls what Open wires up.
type OpenOptions struct {
	// RecordAudit appends engine events to the audit trail while the command runs.
	RecordAudit bool
}

// Open resolves the project root from the persistent flags, loads its
// configuration and returns a ready engine. Callers must Close the Env.
func Open(cmd *cobra.Command, opts OpenOptions) (*Env, error) {
	root, err := config.ResolveProjectRoot(flagValue(cmd, FlagProject))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	v, err := config.NewViper(root, flagValue(cmd, FlagConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := CreateLogger(filepath.Join(cfg.StatePath(root), "logs"), cfg).WithCommand(cmd.CommandPath())

	e, err := engine.New(root, cfg, engine.WithLogger(logger))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	env := &Env{Engine: e, Logger: logger}
	if opts.RecordAudit {
		stop, err := e.RecordAudit()
		if err != nil {
			logger.Warn("audit trail unavailable", "error", err, "severity", errors.GetSeverity(err).String())
		} else {
			env.stopAudit = stop
		}
	}
	logger.Debug("command started", "root", root)
	return env, nil
}

// Close stops audit recording and flushes the logger.
func (env *Env) Close() {
	if env == nil {
		return
	}
	if env.stopAudit != nil {
		env.stopAudit()
		env.stopAudit = nil
	}
	env.Logger.Debug("command finished")
	_ = env.Logger.Close()
}

// CreateLogger creates a logger if logging is enabled in config.
// Returns a NopLogger if logging is disabled or if creation fails.
func CreateLogger(logDir string, cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	rotation := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	logger, err := logging.NewLogger(logDir, cfg.Logging.Level, rotation)
	if err != nil {
		// Log creation failure shouldn't prevent the command from running
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}
