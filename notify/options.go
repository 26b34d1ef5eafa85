package notify

import (
	"fmt"
	"strconv"
	"time"
)

// Position of the toast container on screen
type Position string

const (
	TopLeft      Position = "top-left"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
	BottomLeft   Position = "bottom-left"
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
)

// Theme of rendered toasts
type Theme string

const (
	ThemeAuto    Theme = "auto" // Follow the system preference
	ThemeLight   Theme = "light"
	ThemeDark    Theme = "dark"
	ThemeColored Theme = "colored"
)

// Options configures a Toaster
type Options struct {
	AutoCloseMs     int64    `toml:"autoclose_ms" json:"autoclose_ms"` // 0 keeps toasts until dismissed
	Position        Position `toml:"position" json:"position"`
	Theme           Theme    `toml:"theme" json:"theme"`
	HideProgressBar bool     `toml:"hide_progress_bar" json:"hide_progress_bar"`
	NewestOnTop     bool     `toml:"newest_on_top" json:"newest_on_top"`
	Limit           int64    `toml:"limit" json:"limit"` // Max visible toasts, 0 for unlimited
}

// DefaultOptions returns the standard toast container settings
func DefaultOptions() Options {
	return Options{
		AutoCloseMs:     3000,
		Position:        TopRight,
		Theme:           ThemeAuto,
		HideProgressBar: false,
		NewestOnTop:     true,
		Limit:           0,
	}
}

// AutoClose returns the auto-dismiss delay, zero when disabled
func (o Options) AutoClose() time.Duration {
	return time.Duration(o.AutoCloseMs) * time.Millisecond
}

// Validate checks option values
func (o Options) Validate() error {
	if o.AutoCloseMs < 0 {
		return fmtErrorf("autoclose_ms cannot be negative: %d", o.AutoCloseMs)
	}
	if o.Limit < 0 {
		return fmtErrorf("limit cannot be negative: %d", o.Limit)
	}
	switch o.Position {
	case TopLeft, TopCenter, TopRight, BottomLeft, BottomCenter, BottomRight:
	default:
		return fmtErrorf("invalid position: '%s'", o.Position)
	}
	switch o.Theme {
	case ThemeAuto, ThemeLight, ThemeDark, ThemeColored:
	default:
		return fmtErrorf("invalid theme: '%s'", o.Theme)
	}
	return nil
}

// Set applies a single "key", "value" override by toml key
func (o *Options) Set(key, value string) error {
	switch key {
	case "autoclose_ms", "limit":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		if key == "limit" {
			o.Limit = n
		} else {
			o.AutoCloseMs = n
		}
	case "position":
		o.Position = Position(value)
	case "theme":
		o.Theme = Theme(value)
	case "hide_progress_bar", "newest_on_top":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		if key == "newest_on_top" {
			o.NewestOnTop = b
		} else {
			o.HideProgressBar = b
		}
	default:
		return fmtErrorf("unknown option '%s'", key)
	}
	return nil
}

const errPrefix = "notify: "

func fmtErrorf(format string, args ...any) error {
	return fmt.Errorf(errPrefix+format, args...)
}
