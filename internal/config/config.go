package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete dna project configuration
type Config struct {
	Name             string                `mapstructure:"name"`
	Terminology      TerminologyConfig     `mapstructure:"terminology"`
	DeletedArtifacts []DeletedArtifactRule `mapstructure:"deleted_artifacts"`
	Paths            PathsConfig           `mapstructure:"paths"`
	Validation       ValidationConfig      `mapstructure:"validation"`
	Health           HealthConfig          `mapstructure:"health"`
	Advisory         AdvisoryConfig        `mapstructure:"advisory"`
	Frontier         FrontierConfig        `mapstructure:"frontier"`
	Server           ServerConfig          `mapstructure:"server"`
	Logging          LoggingConfig         `mapstructure:"logging"`
}

// TerminologyConfig drives the [terminology] body lint.
type TerminologyConfig struct {
	// FlaggedTerm is a case-insensitive word whose bare use is reported. Empty disables the lint.
	FlaggedTerm string `mapstructure:"flagged_term"`
	// Exemptions are regular expressions; a line matching any of them is not reported.
	Exemptions []string `mapstructure:"exemptions"`
	// ExemptIDs lists decisions that are never linted for terminology.
	ExemptIDs []string `mapstructure:"exempt_ids"`
}

// DeletedArtifactRule flags references to files or paths that no longer exist.
// Exactly one of Pattern (regular expression) or Glob should be set.
type DeletedArtifactRule struct {
	Pattern string `mapstructure:"pattern"`
	Glob    string `mapstructure:"glob"`
	Label   string `mapstructure:"label"`
}

// PathsConfig controls where documents and engine state live, relative to the project root.
type PathsConfig struct {
	// GovernanceDir holds governance-scope decisions (default: "constitution")
	GovernanceDir string `mapstructure:"governance_dir"`
	// ProjectDir holds project-scope decisions (default: "dna")
	ProjectDir string `mapstructure:"project_dir"`
	// StateDir holds the inbox, scratchpad, audit database and logs (default: ".dna")
	StateDir string `mapstructure:"state_dir"`
	// HealthFile is the generated summary document, relative to ProjectDir (default: "HEALTH.md")
	HealthFile string `mapstructure:"health_file"`
}

// ValidationConfig tunes advisory validation warnings.
type ValidationConfig struct {
	// MaxDependencies is the depends_on length above which [long-deps] is reported
	MaxDependencies int `mapstructure:"max_dependencies"`
	// StaleAfterDays marks a suggested node as stale when untouched this long (0 disables)
	StaleAfterDays int `mapstructure:"stale_after_days"`
}

// HealthConfig controls HEALTH.md generation.
type HealthConfig struct {
	// ThinThreshold is the certainty ratio below which a level is marked thin
	ThinThreshold float64 `mapstructure:"thin_threshold"`
	// AutoRegenerate rewrites HEALTH.md and INDEX.md after each mutation
	AutoRegenerate bool `mapstructure:"auto_regenerate"`
}

// AdvisoryConfig bounds best-effort work that must never block a command.
type AdvisoryConfig struct {
	// Timeout is the budget for post-write validation and health regeneration
	Timeout time.Duration `mapstructure:"timeout"`
}

// FrontierConfig controls frontier output.
type FrontierConfig struct {
	// Top is how many high-weight nodes are listed
	Top int `mapstructure:"top"`
}

// ServerConfig controls the stdio tool server.
type ServerConfig struct {
	// ToolTimeout bounds each tool call
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is active (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level sets the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum size of a log file before rotation (default: 5)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 2)
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Terminology: TerminologyConfig{
			Exemptions: []string{},
			ExemptIDs:  []string{},
		},
		DeletedArtifacts: []DeletedArtifactRule{},
		Paths: PathsConfig{
			GovernanceDir: "constitution",
			ProjectDir:    "dna",
			StateDir:      ".dna",
			HealthFile:    "HEALTH.md",
		},
		Validation: ValidationConfig{
			MaxDependencies: 8,
			StaleAfterDays:  90,
		},
		Health: HealthConfig{
			ThinThreshold:  0.5,
			AutoRegenerate: true,
		},
		Advisory: AdvisoryConfig{
			Timeout: 5 * time.Second,
		},
		Frontier: FrontierConfig{
			Top: 10,
		},
		Server: ServerConfig{
			ToolTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 2,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with the given viper instance
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("name", defaults.Name)

	// Lint defaults
	v.SetDefault("terminology.flagged_term", defaults.Terminology.FlaggedTerm)
	v.SetDefault("terminology.exemptions", defaults.Terminology.Exemptions)
	v.SetDefault("terminology.exempt_ids", defaults.Terminology.ExemptIDs)
	v.SetDefault("deleted_artifacts", defaults.DeletedArtifacts)

	// Paths defaults
	v.SetDefault("paths.governance_dir", defaults.Paths.GovernanceDir)
	v.SetDefault("paths.project_dir", defaults.Paths.ProjectDir)
	v.SetDefault("paths.state_dir", defaults.Paths.StateDir)
	v.SetDefault("paths.health_file", defaults.Paths.HealthFile)

	// Validation defaults
	v.SetDefault("validation.max_dependencies", defaults.Validation.MaxDependencies)
	v.SetDefault("validation.stale_after_days", defaults.Validation.StaleAfterDays)

	// Health defaults
	v.SetDefault("health.thin_threshold", defaults.Health.ThinThreshold)
	v.SetDefault("health.auto_regenerate", defaults.Health.AutoRegenerate)

	v.SetDefault("advisory.timeout", defaults.Advisory.Timeout)
	v.SetDefault("frontier.top", defaults.Frontier.Top)
	v.SetDefault("server.tool_timeout", defaults.Server.ToolTimeout)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// NewViper returns a viper instance configured for a project rooted at root:
// defaults registered, DNA_ env overrides, and configFile (or .dna/config.json
// when empty) as the config file. A missing default config file is not an error.
func NewViper(root, configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaultsOn(v)
	v.SetEnvPrefix("DNA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = ConfigFile(root)
		if _, err := os.Stat(configFile); err != nil {
			return v, nil
		}
	}
	v.SetConfigFile(configFile)
	if filepath.Ext(configFile) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// LoadProject loads the configuration for the project rooted at root.
func LoadProject(root string) (*Config, error) {
	v, err := NewViper(root, "")
	if err != nil {
		return nil, err
	}
	return LoadFrom(v)
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigFile returns the path to the project config file
func ConfigFile(root string) string {
	return filepath.Join(root, ".dna", "config.json")
}

// ResolveProjectRoot picks the project root: an explicit flag value first,
// then DNA_PROJECT_DIR, then CLAUDE_PROJECT_DIR, then the working directory.
func ResolveProjectRoot(flagValue string) (string, error) {
	for _, candidate := range []string{flagValue, os.Getenv("DNA_PROJECT_DIR"), os.Getenv("CLAUDE_PROJECT_DIR")} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}
	return os.Getwd()
}

// GovernancePath returns the absolute governance-scope directory.
func (c *Config) GovernancePath(root string) string {
	return resolve(root, c.Paths.GovernanceDir)
}

// ProjectPath returns the absolute project-scope directory.
func (c *Config) ProjectPath(root string) string {
	return resolve(root, c.Paths.ProjectDir)
}

// StatePath returns the absolute engine state directory.
func (c *Config) StatePath(root string) string {
	return resolve(root, c.Paths.StateDir)
}

// HealthPath returns the absolute path of the generated health summary.
func (c *Config) HealthPath(root string) string {
	return filepath.Join(c.ProjectPath(root), c.Paths.HealthFile)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
