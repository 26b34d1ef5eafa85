package toastlog

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyConfigString applies "key=value" overrides to a clone of the current configuration
//
// Example:
//
//	logger := toastlog.NewLogger()
//	err := logger.ApplyConfigString(
//	    "level=debug",
//	    "format=json",
//	    "console_target=stdout",
//	)
func (l *Logger) ApplyConfigString(overrides ...string) error {
	cfg, err := l.getConfig().WithOverrides(overrides...)
	if err != nil {
		return err
	}
	return l.ApplyConfig(cfg)
}

// WithOverrides returns a clone of c with "key=value" overrides applied, without validating it
func (c *Config) WithOverrides(overrides ...string) (*Config, error) {
	cfg := c.Clone()

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, combineConfigErrors(errs)
	}
	return cfg, nil
}

// combineConfigErrors folds multiple configuration errors into one numbered error
func combineConfigErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}

	var sb strings.Builder
	sb.WriteString(errPrefix + "multiple configuration errors:")
	for i, err := range errs {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, strings.TrimPrefix(err.Error(), errPrefix))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single string override to the matching Config field
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	case "level":
		// Accept numeric and named values
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			cfg.Level = n
			return nil
		}
		lvl, err := Level(value)
		if err != nil {
			return err
		}
		cfg.Level = lvl
	case "name":
		cfg.Name = value
	case "directory":
		cfg.Directory = value
	case "format":
		cfg.Format = value
	case "extension":
		cfg.Extension = value
	case "timestamp_format":
		cfg.TimestampFormat = value
	case "console_target":
		cfg.ConsoleTarget = value

	case "show_timestamp", "show_level", "enable_console", "enable_file", "internal_errors_to_stderr":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		switch key {
		case "show_timestamp":
			cfg.ShowTimestamp = b
		case "show_level":
			cfg.ShowLevel = b
		case "enable_console":
			cfg.EnableConsole = b
		case "enable_file":
			cfg.EnableFile = b
		case "internal_errors_to_stderr":
			cfg.InternalErrorsToStderr = b
		}

	case "buffer_size", "flush_interval_ms", "trace_depth":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		switch key {
		case "buffer_size":
			cfg.BufferSize = n
		case "flush_interval_ms":
			cfg.FlushIntervalMs = n
		case "trace_depth":
			cfg.TraceDepth = n
		}

	default:
		return fmtErrorf("unknown config key '%s'", key)
	}
	return nil
}
