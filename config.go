package objstore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration. It is loaded once at startup.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Hooks    HooksConfig    `yaml:"hooks"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" jsonschema:"enum=sqlite3,enum=mysql,enum=postgres"`
	DSN    string `yaml:"dsn" jsonschema:"description=Driver data source name"`
	Table  string `yaml:"table" jsonschema:"description=Document table name"`
}

type LoggingConfig struct {
	Level              string        `yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format             string        `yaml:"format" jsonschema:"enum=text,enum=json"`
	QueryLogging       bool          `yaml:"query_logging" jsonschema:"description=Log every statement at debug level"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" jsonschema:"type=string,description=Duration such as 200ms"`
}

type HooksConfig struct {
	// Timestamps registers TimestampHooks.
	Timestamps bool `yaml:"timestamps" jsonschema:"description=Maintain createdAt and updatedAt"`
	// RootOnlyClasses registers RootOnlyHooks for these classes.
	RootOnlyClasses   []string      `yaml:"root_only_classes" jsonschema:"description=Class names or glob patterns writable only by root"`
	SlowHookThreshold time.Duration `yaml:"slow_hook_threshold" jsonschema:"type=string,description=Duration such as 200ms"`
	LogChains         bool          `yaml:"log_chains" jsonschema:"description=Log each hook chain at debug level"`

	// Descriptors are the application hooks. Callbacks cannot come from YAML,
	// so they are set in code before New.
	Descriptors []HookDescriptor `yaml:"-"`
}

// DefaultConfig returns the configuration used for fields a file leaves out.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "file:objstore.db",
			Table:  DefaultTable,
		},
		Logging: LoggingConfig{
			Level:              "info",
			Format:             "text",
			SlowQueryThreshold: 200 * time.Millisecond,
		},
		Hooks: HooksConfig{
			SlowHookThreshold: 200 * time.Millisecond,
		},
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("objstore: read config: %w", err)
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(b []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("objstore: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the static parts of the configuration. Hook descriptors are
// validated by NewRegistry.
func (c Config) Validate() error {
	if _, err := DialectByName(c.Database.Driver); err != nil {
		return err
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Database.Table != "" && !identifier.MatchString(c.Database.Table) {
		return fmt.Errorf("objstore: invalid table name %q", c.Database.Table)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("objstore: unknown log format %q", c.Logging.Format)
	}
	for _, name := range c.Hooks.RootOnlyClasses {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("objstore: root_only_classes contains an empty class name")
		}
		if !doublestar.ValidatePattern(name) {
			return fmt.Errorf("objstore: root_only_classes: invalid pattern %q", name)
		}
	}
	return nil
}

// HookDescriptors returns the built-in hooks enabled by the configuration
// followed by the application descriptors.
func (c Config) HookDescriptors() []HookDescriptor {
	var hooks []HookDescriptor
	if c.Hooks.Timestamps {
		hooks = append(hooks, TimestampHooks()...)
	}
	if len(c.Hooks.RootOnlyClasses) > 0 {
		hooks = append(hooks, RootOnlyHooks(c.Hooks.RootOnlyClasses...)...)
	}
	return append(hooks, c.Hooks.Descriptors...)
}

// ConfigSchema returns the JSON Schema of the configuration file.
func ConfigSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Config{})
	s.Title = "objstore configuration"
	return s
}

// NewLogger builds the slog logger described by the logging section.
func (c LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("objstore: unknown log level %q", s)
	}
	return level, nil
}
