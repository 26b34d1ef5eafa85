package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lixenwraith/config"

	"github.com/lixenwraith/toastlog"
	"github.com/lixenwraith/toastlog/notify"
	"github.com/lixenwraith/toastlog/server"
)

// appConfig groups the log., toast. and server. sections of roomshell.toml
type appConfig struct {
	Log    *toastlog.Config
	Toast  notify.Options
	Server server.Config
}

// loadConfig reads path, tolerating a missing file, then applies "section.key=value" overrides
func loadConfig(path string, overrides ...string) (*appConfig, error) {
	app := &appConfig{
		Log:    toastlog.DefaultConfig(),
		Toast:  notify.DefaultOptions(),
		Server: server.DefaultConfig(),
	}

	loader := config.New()
	sections := []struct {
		prefix   string
		defaults any
		dst      any
	}{
		{"log.", *app.Log, app.Log},
		{"toast.", app.Toast, &app.Toast},
		{"server.", app.Server, &app.Server},
	}

	for _, s := range sections {
		if err := loader.RegisterStruct(s.prefix, s.defaults); err != nil {
			return nil, fmt.Errorf("failed to register %s section: %w", strings.TrimSuffix(s.prefix, "."), err)
		}
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	for _, s := range sections {
		if err := toastlog.ExtractConfig(loader, s.prefix, s.dst); err != nil {
			return nil, err
		}
	}

	var logOverrides []string
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override '%s', expected section.key=value", o)
		}
		section, field, _ := strings.Cut(strings.TrimSpace(key), ".")
		value = strings.TrimSpace(value)

		switch section {
		case "log":
			logOverrides = append(logOverrides, field+"="+value)
		case "toast":
			if err := app.Toast.Set(field, value); err != nil {
				return nil, err
			}
		case "server":
			if err := setServerField(&app.Server, field, value); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown config section in '%s'", o)
		}
	}

	if len(logOverrides) > 0 {
		cfg, err := app.Log.WithOverrides(logOverrides...)
		if err != nil {
			return nil, err
		}
		app.Log = cfg
	}

	if err := app.validate(); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *appConfig) validate() error {
	var errs []error
	if err := a.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Toast.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Server.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func setServerField(c *server.Config, key, value string) error {
	switch key {
	case "http_addr":
		c.HTTPAddr = value
	case "stream_addr":
		c.StreamAddr = value
	case "enable_http", "enable_stream":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for server.%s '%s': %w", key, value, err)
		}
		if key == "enable_http" {
			c.EnableHTTP = b
		} else {
			c.EnableStream = b
		}
	case "max_body_size_kb", "sse_keepalive_ms":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for server.%s '%s': %w", key, value, err)
		}
		if key == "max_body_size_kb" {
			c.MaxBodySizeKB = n
		} else {
			c.SSEKeepaliveMs = n
		}
	default:
		return fmt.Errorf("unknown server option '%s'", key)
	}
	return nil
}
