package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "validation.max_dependencies")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateTerminology()...)
	errors = append(errors, c.validateDeletedArtifacts()...)
	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateThresholds()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateTerminology() []ValidationError {
	var errors []ValidationError

	for i, expr := range c.Terminology.Exemptions {
		if _, err := regexp.Compile(expr); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("terminology.exemptions[%d]", i),
				Value:   expr,
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	return errors
}

func (c *Config) validateDeletedArtifacts() []ValidationError {
	var errors []ValidationError

	for i, rule := range c.DeletedArtifacts {
		field := fmt.Sprintf("deleted_artifacts[%d]", i)
		switch {
		case rule.Pattern == "" && rule.Glob == "":
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   rule.Label,
				Message: "one of pattern or glob is required",
			})
		case rule.Pattern != "" && rule.Glob != "":
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   rule.Label,
				Message: "pattern and glob are mutually exclusive",
			})
		case rule.Pattern != "":
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				errors = append(errors, ValidationError{
					Field:   field + ".pattern",
					Value:   rule.Pattern,
					Message: fmt.Sprintf("invalid regular expression: %v", err),
				})
			}
		default:
			if _, err := glob.Compile(rule.Glob, '/'); err != nil {
				errors = append(errors, ValidationError{
					Field:   field + ".glob",
					Value:   rule.Glob,
					Message: fmt.Sprintf("invalid glob: %v", err),
				})
			}
		}
	}

	return errors
}

func (c *Config) validatePaths() []ValidationError {
	var errors []ValidationError

	dirs := map[string]string{
		"paths.governance_dir": c.Paths.GovernanceDir,
		"paths.project_dir":    c.Paths.ProjectDir,
		"paths.state_dir":      c.Paths.StateDir,
	}
	for _, field := range []string{"paths.governance_dir", "paths.project_dir", "paths.state_dir"} {
		if strings.TrimSpace(dirs[field]) == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   dirs[field],
				Message: "must not be empty",
			})
		}
	}

	if c.Paths.GovernanceDir != "" && filepath.Clean(c.Paths.GovernanceDir) == filepath.Clean(c.Paths.ProjectDir) {
		errors = append(errors, ValidationError{
			Field:   "paths.project_dir",
			Value:   c.Paths.ProjectDir,
			Message: "must differ from paths.governance_dir",
		})
	}

	if c.Paths.HealthFile == "" || strings.ContainsRune(c.Paths.HealthFile, filepath.Separator) {
		errors = append(errors, ValidationError{
			Field:   "paths.health_file",
			Value:   c.Paths.HealthFile,
			Message: "must be a plain file name",
		})
	}

	return errors
}

func (c *Config) validateThresholds() []ValidationError {
	var errors []ValidationError

	if c.Validation.MaxDependencies < 1 {
		errors = append(errors, ValidationError{
			Field:   "validation.max_dependencies",
			Value:   c.Validation.MaxDependencies,
			Message: "must be at least 1",
		})
	}
	if c.Validation.StaleAfterDays < 0 {
		errors = append(errors, ValidationError{
			Field:   "validation.stale_after_days",
			Value:   c.Validation.StaleAfterDays,
			Message: "must be non-negative",
		})
	}
	if c.Health.ThinThreshold < 0 || c.Health.ThinThreshold > 1 {
		errors = append(errors, ValidationError{
			Field:   "health.thin_threshold",
			Value:   c.Health.ThinThreshold,
			Message: "must be between 0 and 1",
		})
	}
	if c.Advisory.Timeout <= 0 || c.Advisory.Timeout > time.Minute {
		errors = append(errors, ValidationError{
			Field:   "advisory.timeout",
			Value:   c.Advisory.Timeout,
			Message: "must be positive and at most 1m",
		})
	}
	if c.Frontier.Top < 1 {
		errors = append(errors, ValidationError{
			Field:   "frontier.top",
			Value:   c.Frontier.Top,
			Message: "must be at least 1",
		})
	}
	if c.Server.ToolTimeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.tool_timeout",
			Value:   c.Server.ToolTimeout,
			Message: "must be positive",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
