package toastlog

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const errPrefix = "toastlog: "

// getTrace returns a caller -> callee chain of function names
func getTrace(depth int64, skip int) string {
	if depth <= 0 || depth > maxTraceDepth {
		return ""
	}
	pc := make([]uintptr, int(depth)+skip)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return "(unknown)"
	}

	frames := runtime.CallersFrames(pc[:n])
	names := make([]string, 0, depth)
	for len(names) < int(depth) {
		frame, more := frames.Next()
		names = append(names, shortFuncName(frame.Function))
		if !more {
			break
		}
	}
	if len(names) == 0 {
		return "(unknown)"
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " -> ")
}

// shortFuncName strips the package path, keeping anonymous closures readable
func shortFuncName(full string) string {
	base := filepath.Base(full)
	parts := strings.Split(base, ".")
	last := parts[len(parts)-1]
	if len(parts) > 1 && len(last) > 4 && strings.HasPrefix(last, "func") && strings.Trim(last[4:], "0123456789") == "" {
		return fmt.Sprintf("(anonymous in %s)", strings.Join(parts[:len(parts)-1], "."))
	}
	return last
}

// fmtErrorf prefixes errors with the package name
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, errPrefix) {
		format = errPrefix + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors joins two errors keeping the second one unwrappable
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string
func parseKeyValue(arg string) (string, string, error) {
	key, value, ok := strings.Cut(strings.TrimSpace(arg), "=")
	if !ok {
		return "", "", fmtErrorf("invalid override '%s', expected key=value", arg)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", fmtErrorf("empty key in override '%s'", arg)
	}
	return key, strings.TrimSpace(value), nil
}

// Level converts a level name to its numeric constant
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmtErrorf("invalid level '%s' (use debug, info, warn, error)", levelStr)
	}
}
