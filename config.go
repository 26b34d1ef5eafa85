package toastlog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/lixenwraith/config"
)

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Level     int64  `toml:"level"`
	Name      string `toml:"name"` // Base name for the log file
	Directory string `toml:"directory"`
	Format    string `toml:"format"` // "txt", "json", or "raw"
	Extension string `toml:"extension"`

	// Formatting
	ShowTimestamp   bool   `toml:"show_timestamp"`
	ShowLevel       bool   `toml:"show_level"`
	TimestampFormat string `toml:"timestamp_format"`

	// Processing
	BufferSize      int64 `toml:"buffer_size"`       // Channel buffer size
	FlushIntervalMs int64 `toml:"flush_interval_ms"` // Interval for flushing file output
	TraceDepth      int64 `toml:"trace_depth"`       // Default trace depth (0-10)

	// Outputs
	EnableConsole bool   `toml:"enable_console"`
	ConsoleTarget string `toml:"console_target"` // "stdout" or "stderr"
	EnableFile    bool   `toml:"enable_file"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Level:     LevelInfo,
	Name:      "roomshell",
	Directory: "./logs",
	Format:    "txt",
	Extension: "log",

	ShowTimestamp:   true,
	ShowLevel:       true,
	TimestampFormat: time.RFC3339Nano,

	BufferSize:      1024,
	FlushIntervalMs: 100,
	TraceDepth:      0,

	EnableConsole: true,
	ConsoleTarget: "stderr",
	EnableFile:    false,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copied := defaultConfig
	return &copied
}

// NewConfigFromFile loads the "log." section of a TOML file and returns a validated Config
// A missing file yields the defaults
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct("log.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := ExtractConfig(loader, "log.", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides keyed by toml tag
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	fields := tomlFields(reflect.ValueOf(cfg).Elem())
	for key, value := range overrides {
		field, ok := fields[key]
		if !ok {
			return nil, fmtErrorf("unknown config key: %s", key)
		}
		if err := setFieldValue(field, value); err != nil {
			return nil, fmtErrorf("failed to set %s: %w", key, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExtractConfig copies values found under prefix in the loader into the toml-tagged fields of dst
// dst must be a pointer to a struct; keys absent from the loader keep their current value
func ExtractConfig(loader *config.Config, prefix string, dst any) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmtErrorf("config target must be a struct pointer, got %T", dst)
	}

	for tag, field := range tomlFields(v.Elem()) {
		val, found := loader.Get(prefix + tag)
		if !found {
			continue
		}
		if err := setFieldValue(field, val); err != nil {
			return fmtErrorf("failed to set %s%s: %w", prefix, tag, err)
		}
	}
	return nil
}

// tomlFields maps toml tags to settable struct fields
func tomlFields(v reflect.Value) map[string]reflect.Value {
	t := v.Type()
	fields := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("toml")
		if tag == "" || tag == "-" {
			continue
		}
		fields[tag] = v.Field(i)
	}
	return fields
}

// setFieldValue sets a reflect.Value with the conversions TOML decoding requires
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.Kind() != reflect.String {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(rv.String())

	case reflect.Int, reflect.Int64:
		switch n := value.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		case float64:
			if n != float64(int64(n)) {
				return fmt.Errorf("expected integer, got %v", n)
			}
			field.SetInt(int64(n))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Float64:
		switch n := value.(type) {
		case float64:
			field.SetFloat(n)
		case int64:
			field.SetFloat(float64(n))
		case int:
			field.SetFloat(float64(n))
		default:
			return fmt.Errorf("expected float64, got %T", value)
		}

	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c.Level != LevelDebug && c.Level != LevelInfo && c.Level != LevelWarn && c.Level != LevelError {
		return fmtErrorf("invalid level: %d", c.Level)
	}

	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("log name cannot be empty")
	}

	if c.Format != "txt" && c.Format != "json" && c.Format != "raw" {
		return fmtErrorf("invalid format: '%s' (use txt, json, or raw)", c.Format)
	}

	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if c.ConsoleTarget != "stdout" && c.ConsoleTarget != "stderr" {
		return fmtErrorf("invalid console_target: '%s' (use stdout or stderr)", c.ConsoleTarget)
	}

	if c.BufferSize <= 0 {
		return fmtErrorf("buffer_size must be positive: %d", c.BufferSize)
	}

	if c.FlushIntervalMs <= 0 {
		return fmtErrorf("flush_interval_ms must be positive: %d", c.FlushIntervalMs)
	}

	if c.TraceDepth < 0 || c.TraceDepth > maxTraceDepth {
		return fmtErrorf("trace_depth must be between 0 and %d: %d", maxTraceDepth, c.TraceDepth)
	}

	if c.EnableFile && strings.TrimSpace(c.Directory) == "" {
		return fmtErrorf("directory cannot be empty when file output is enabled")
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copied := *c
	return &copied
}

// configRequiresRestart reports whether the processor must be restarted to apply newCfg
func configRequiresRestart(oldCfg, newCfg *Config) bool {
	return oldCfg.BufferSize != newCfg.BufferSize ||
		oldCfg.FlushIntervalMs != newCfg.FlushIntervalMs ||
		oldCfg.Format != newCfg.Format ||
		oldCfg.TimestampFormat != newCfg.TimestampFormat
}
