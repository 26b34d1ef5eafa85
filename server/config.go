package server

import (
	"fmt"
	"net"
)

// Config holds listener settings for the toast transports
type Config struct {
	EnableHTTP     bool   `toml:"enable_http"`
	HTTPAddr       string `toml:"http_addr"`
	EnableStream   bool   `toml:"enable_stream"`
	StreamAddr     string `toml:"stream_addr"`
	MaxBodySizeKB  int64  `toml:"max_body_size_kb"` // Limit for browser error reports
	SSEKeepaliveMs int64  `toml:"sse_keepalive_ms"`
}

// DefaultConfig returns loopback listeners for both transports
func DefaultConfig() Config {
	return Config{
		EnableHTTP:     true,
		HTTPAddr:       "127.0.0.1:8080",
		EnableStream:   true,
		StreamAddr:     "127.0.0.1:9000",
		MaxBodySizeKB:  64,
		SSEKeepaliveMs: 15000,
	}
}

// Validate checks addresses of enabled transports
func (c Config) Validate() error {
	if c.EnableHTTP {
		if _, _, err := net.SplitHostPort(c.HTTPAddr); err != nil {
			return fmtErrorf("invalid http_addr '%s': %w", c.HTTPAddr, err)
		}
	}
	if c.EnableStream {
		if _, _, err := net.SplitHostPort(c.StreamAddr); err != nil {
			return fmtErrorf("invalid stream_addr '%s': %w", c.StreamAddr, err)
		}
	}
	if c.MaxBodySizeKB <= 0 {
		return fmtErrorf("max_body_size_kb must be positive: %d", c.MaxBodySizeKB)
	}
	if c.SSEKeepaliveMs <= 0 {
		return fmtErrorf("sse_keepalive_ms must be positive: %d", c.SSEKeepaliveMs)
	}
	return nil
}

const errPrefix = "server: "

func fmtErrorf(format string, args ...any) error {
	return fmt.Errorf(errPrefix+format, args...)
}
