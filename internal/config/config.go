package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/gozod/internal/errors"
	"github.com/mcncl/gozod/internal/nullable"
)

// DefaultRootName is the name of the root declaration if none is configured.
const DefaultRootName = "Schema"

// DefaultMaxDepth bounds how deeply nested a document may be.
const DefaultMaxDepth = 256

// Layout selects how declarations are arranged in the output.
type Layout string

const (
	// LayoutSource emits a child declaration right after the field that
	// references it, nested inside its parent.
	LayoutSource Layout = "source"
	// LayoutHoisted emits every declaration at top level, children first.
	LayoutHoisted Layout = "hoisted"
)

// CollisionPolicy decides what happens when two paths derive the same name.
type CollisionPolicy string

const (
	// CollisionSuffix appends a counter to the later name.
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionError fails generation.
	CollisionError CollisionPolicy = "error"
)

// SamplingStrategy names how an array's element shape is chosen.
type SamplingStrategy string

// SamplingFirstElement infers the element shape from the first element only.
const SamplingFirstElement SamplingStrategy = "first-element"

// Config represents the complete configuration for gozod
type Config struct {
	RootName   string           `yaml:"root_name" jsonschema:"description=Name of the root declaration"`
	Generation GenerationConfig `yaml:"generation"`
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Dev        DevConfig        `yaml:"dev"`
}

// GenerationConfig controls type inference and rendering
type GenerationConfig struct {
	AddNullable         bool             `yaml:"add_nullable" jsonschema:"description=Mark some fields .nullable()"`
	NullableSeed        uint64           `yaml:"nullable_seed" jsonschema:"description=Seed for nullable draws; 0 derives one from the clock"`
	NullablePaths       []string         `yaml:"nullable_paths" jsonschema:"description=Field paths to mark nullable instead of drawing at random"`
	CustomErrorMessages bool             `yaml:"custom_error_messages" jsonschema:"description=Wrap field types in a superRefine scaffold"`
	ArraySampling       SamplingStrategy `yaml:"array_sampling" jsonschema:"enum=first-element"`
	Layout              Layout           `yaml:"layout" jsonschema:"enum=source,enum=hoisted"`
	NameCollisions      CollisionPolicy  `yaml:"name_collisions" jsonschema:"enum=suffix,enum=error"`
	MaxDepth            int              `yaml:"max_depth" jsonschema:"minimum=1"`

	// Nullable overrides the policy derived from the fields above. It is
	// shared by every generation using this config, so it must either be
	// safe for concurrent use or implement nullable.Stateful.
	Nullable nullable.Policy `yaml:"-" json:"-" jsonschema:"-"`
}

// InputConfig controls how input text is read
type InputConfig struct {
	Repair bool `yaml:"repair" jsonschema:"description=Try to repair malformed JSON before giving up"`
}

// OutputConfig controls output generation options
type OutputConfig struct {
	FileHeader string `yaml:"file_header" jsonschema:"description=Comment prepended to the generated file"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// EnvOverrides holds values read from GOZOD_* environment variables. Unset
// variables leave the pointer nil so they do not clobber file values.
type EnvOverrides struct {
	RootName            *string `env:"GOZOD_ROOT_NAME, noinit"`
	AddNullable         *bool   `env:"GOZOD_ADD_NULLABLE, noinit"`
	NullableSeed        *uint64 `env:"GOZOD_NULLABLE_SEED, noinit"`
	CustomErrorMessages *bool   `env:"GOZOD_CUSTOM_ERROR_MESSAGES, noinit"`
	Layout              *string `env:"GOZOD_LAYOUT, noinit"`
	NameCollisions      *string `env:"GOZOD_NAME_COLLISIONS, noinit"`
	MaxDepth            *int    `env:"GOZOD_MAX_DEPTH, noinit"`
	Repair              *bool   `env:"GOZOD_REPAIR, noinit"`
	Debug               *bool   `env:"GOZOD_DEBUG, noinit"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		RootName: DefaultRootName,
		Generation: GenerationConfig{
			AddNullable:         false,
			NullablePaths:       []string{},
			CustomErrorMessages: false,
			ArraySampling:       SamplingFirstElement,
			Layout:              LayoutSource,
			NameCollisions:      CollisionSuffix,
			MaxDepth:            DefaultMaxDepth,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".gozod.yml", ".gozod.yaml", "gozod.yml", "gozod.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return errors.NewConfigError(fmt.Sprintf("failed to load env file '%s'", path), err)
	}
	return nil
}

// ApplyEnv overlays GOZOD_* environment variables onto c.
func (c *Config) ApplyEnv(ctx context.Context) error {
	return c.applyEnv(ctx, envconfig.OsLookuper())
}

func (c *Config) applyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	var env EnvOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return errors.NewConfigError("failed to read environment", err)
	}

	if env.RootName != nil {
		c.RootName = *env.RootName
	}
	if env.AddNullable != nil {
		c.Generation.AddNullable = *env.AddNullable
	}
	if env.NullableSeed != nil {
		c.Generation.NullableSeed = *env.NullableSeed
	}
	if env.CustomErrorMessages != nil {
		c.Generation.CustomErrorMessages = *env.CustomErrorMessages
	}
	if env.Layout != nil {
		c.Generation.Layout = Layout(*env.Layout)
	}
	if env.NameCollisions != nil {
		c.Generation.NameCollisions = CollisionPolicy(*env.NameCollisions)
	}
	if env.MaxDepth != nil {
		c.Generation.MaxDepth = *env.MaxDepth
	}
	if env.Repair != nil {
		c.Input.Repair = *env.Repair
	}
	if env.Debug != nil {
		c.Dev.Debug = *env.Debug
	}
	return c.Validate()
}

// Validate checks enum values and limits
func (c *Config) Validate() error {
	switch c.Generation.Layout {
	case LayoutSource, LayoutHoisted:
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown layout %q (want source or hoisted)", c.Generation.Layout), errors.ErrInvalidConfig)
	}
	switch c.Generation.NameCollisions {
	case CollisionSuffix, CollisionError:
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown name collision policy %q (want suffix or error)", c.Generation.NameCollisions), errors.ErrInvalidConfig)
	}
	switch c.Generation.ArraySampling {
	case SamplingFirstElement:
	default:
		return errors.NewConfigError(fmt.Sprintf("unknown array sampling strategy %q (want first-element)", c.Generation.ArraySampling), errors.ErrInvalidConfig)
	}
	if c.Generation.MaxDepth < 1 {
		return errors.NewConfigError(fmt.Sprintf("max_depth must be positive, got %d", c.Generation.MaxDepth), errors.ErrInvalidConfig)
	}
	return nil
}

// DeclarationRoot returns the root declaration name as a PascalCase identifier.
func (c *Config) DeclarationRoot() string {
	if strings.TrimSpace(c.RootName) == "" {
		return DefaultRootName
	}
	name := strcase.ToCamel(c.RootName)
	if name == "" {
		return DefaultRootName
	}
	return name
}

// NullablePolicy returns the policy the analyzer should consult, or nil when
// nullable marking is off. A zero seed is replaced by seed, which callers
// derive from the clock.
func (c *Config) NullablePolicy(seed uint64) nullable.Policy {
	if !c.Generation.AddNullable {
		return nil
	}
	if c.Generation.Nullable != nil {
		return nullable.Fresh(c.Generation.Nullable)
	}
	if len(c.Generation.NullablePaths) > 0 {
		return nullable.NewPaths(c.Generation.NullablePaths)
	}
	if c.Generation.NullableSeed != 0 {
		seed = c.Generation.NullableSeed
	}
	return nullable.NewRandom(seed)
}

// LoadConfigWithCLI loads config with CLI argument precedence.
// Layering: defaults, then the config file (explicit path or discovered),
// then the optional env file, then GOZOD_* variables. CLI flags are applied
// by the caller afterwards.
func LoadConfigWithCLI(ctx context.Context, configPath, envFile string) (*Config, error) {
	cfg := NewConfig()

	if configPath == "" {
		configPath = FindConfigFile()
	}
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if envFile != "" {
		if err := LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(ctx); err != nil {
		return nil, err
	}

	return cfg, nil
}
