package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/toastlog"
	"github.com/lixenwraith/toastlog/notify"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := strings.TrimSpace(b.buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// fakeChannel records reported texts and can be told to fail
type fakeChannel struct {
	mu       sync.Mutex
	texts    []string
	err      error
	panicMsg string
	onReport func(text string)
}

func (c *fakeChannel) ReportError(text string) error {
	if c.onReport != nil {
		c.onReport(text)
	}
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, text)
	return nil
}

func (c *fakeChannel) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

// funcChannel is not comparable
type funcChannel func(string) error

func (f funcChannel) ReportError(text string) error { return f(text) }

// holderChannel is comparable only when hook holds a comparable value
type holderChannel struct {
	hook any
}

func (holderChannel) ReportError(string) error { return nil }

func createTestLogger(t *testing.T) (*toastlog.Logger, *syncBuffer) {
	t.Helper()
	return createFormatLogger(t, "txt")
}

func createFormatLogger(t *testing.T, format string) (*toastlog.Logger, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	logger, err := toastlog.NewBuilder().
		Format(format).
		Output(out).
		ShowTimestamp(false).
		FlushIntervalMs(10).
		Build()
	require.NoError(t, err)
	require.NoError(t, logger.Start())
	t.Cleanup(func() { _ = logger.Shutdown() })
	return logger, out
}

func installTestBridge(t *testing.T, logger *toastlog.Logger, ch notify.Channel, opts ...Option) *Bridge {
	t.Helper()
	b, err := Install(logger, ch, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { b.Uninstall() })
	return b
}

func TestInstallForwardsAndNotifies(t *testing.T) {
	logger, out := createTestLogger(t)
	ch := &fakeChannel{}
	installTestBridge(t, logger, ch)

	logger.Error("Network error", "timeout")
	require.NoError(t, logger.Flush(time.Second))

	assert.Equal(t, []string{`ERROR "Network error" timeout`}, out.Lines())
	assert.Equal(t, []string{"Network error timeout"}, ch.Texts())
}

func TestStructuredArgument(t *testing.T) {
	logger, _ := createTestLogger(t)
	ch := &fakeChannel{}
	installTestBridge(t, logger, ch)

	logger.Error("failed:", map[string]any{"code": 500})

	assert.Equal(t, []string{`failed: {"code":500}`}, ch.Texts())
}

func TestOnlyErrorsByDefault(t *testing.T) {
	logger, _ := createTestLogger(t)
	ch := &fakeChannel{}
	installTestBridge(t, logger, ch)

	logger.Info("fine")
	logger.Warn("hmm")
	logger.Error("bad")

	assert.Equal(t, []string{"bad"}, ch.Texts())
}

func TestWithMinLevel(t *testing.T) {
	logger, _ := createTestLogger(t)
	ch := &fakeChannel{}
	installTestBridge(t, logger, ch, WithMinLevel(toastlog.LevelWarn))

	logger.Info("fine")
	logger.Warn("hmm")

	assert.Equal(t, []string{"hmm"}, ch.Texts())
}

func TestCircularArgument(t *testing.T) {
	var original [][]any
	ch := &fakeChannel{}
	bridged := Wrap(func(args ...any) { original = append(original, args) }, ch)

	circular := map[string]any{}
	circular["self"] = circular

	assert.NotPanics(t, func() { bridged(circular) })

	require.Len(t, original, 1)
	require.Len(t, original[0], 1)
	assert.Equal(t, []string{Placeholder}, ch.Texts())
}

func TestUnrenderableArgumentsThroughLogger(t *testing.T) {
	circular := map[string]any{}
	circular["self"] = circular
	var typedNil *nilErr

	cases := []struct {
		name string
		arg  any
	}{
		{"circular map", circular},
		{"NaN", math.NaN()},
		{"typed nil error", typedNil},
	}

	for _, format := range []string{"txt", "json"} {
		for _, tc := range cases {
			t.Run(format+"/"+tc.name, func(t *testing.T) {
				logger, out := createFormatLogger(t, format)
				ch := &fakeChannel{}
				installTestBridge(t, logger, ch)

				assert.NotPanics(t, func() { logger.Error("failed:", tc.arg) })
				require.NoError(t, logger.Flush(time.Second))

				lines := out.Lines()
				require.Len(t, lines, 1, "original sink writes the record")
				if format == "json" {
					assert.True(t, json.Valid([]byte(lines[0])), lines[0])
				} else {
					assert.True(t, strings.HasPrefix(lines[0], "ERROR failed: "), lines[0])
				}
				assert.Equal(t, []string{"failed: " + Placeholder}, ch.Texts())
			})
		}
	}
}

func TestOriginalRunsBeforeNotification(t *testing.T) {
	var order []string
	var received []any
	ch := &fakeChannel{onReport: func(string) { order = append(order, "notify") }}

	bridged := Wrap(func(args ...any) {
		order = append(order, "original")
		received = args
	}, ch)

	args := []any{"x", 1, nil}
	bridged(args...)

	assert.Equal(t, []string{"original", "notify"}, order)
	assert.Equal(t, args, received)
}

func TestEmptyArguments(t *testing.T) {
	t.Run("submitted by default", func(t *testing.T) {
		logger, out := createTestLogger(t)
		ch := &fakeChannel{}
		b := installTestBridge(t, logger, ch)

		logger.Error()
		require.NoError(t, logger.Flush(time.Second))

		assert.Equal(t, []string{"ERROR"}, out.Lines())
		assert.Equal(t, []string{""}, ch.Texts())
		assert.Equal(t, Stats{Reported: 1}, b.Stats())
	})

	t.Run("suppressed when configured", func(t *testing.T) {
		logger, _ := createTestLogger(t)
		ch := &fakeChannel{}
		b := installTestBridge(t, logger, ch, WithSuppressEmpty(true))

		logger.Error()

		assert.Empty(t, ch.Texts())
		assert.Equal(t, Stats{Suppressed: 1}, b.Stats())
	})
}

func TestReinstallIsDeduplicated(t *testing.T) {
	logger, out := createTestLogger(t)
	ch := &fakeChannel{}

	first := installTestBridge(t, logger, ch)
	second := installTestBridge(t, logger, ch)

	assert.Same(t, first, second)
	assert.Equal(t, 1, logger.ObserverCount())

	logger.Error("once")
	require.NoError(t, logger.Flush(time.Second))

	assert.Equal(t, []string{"ERROR once"}, out.Lines(), "original sink invoked exactly once")
	assert.Equal(t, []string{"once"}, ch.Texts(), "one notification per call")
}

func TestDistinctChannelsBothNotified(t *testing.T) {
	logger, _ := createTestLogger(t)
	a, b := &fakeChannel{}, &fakeChannel{}
	installTestBridge(t, logger, a)
	installTestBridge(t, logger, b)

	logger.Error("both")

	assert.Equal(t, []string{"both"}, a.Texts())
	assert.Equal(t, []string{"both"}, b.Texts())
}

func TestWrapTwiceChains(t *testing.T) {
	calls := 0
	ch := &fakeChannel{}
	fn := Wrap(Wrap(func(...any) { calls++ }, ch), ch)

	fn("layered")

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"layered", "layered"}, ch.Texts())
}

func TestChannelFailuresAreContained(t *testing.T) {
	t.Run("returned error", func(t *testing.T) {
		logger, out := createTestLogger(t)
		ch := &fakeChannel{err: errors.New("render failed")}
		b := installTestBridge(t, logger, ch)

		assert.NotPanics(t, func() { logger.Error("still logged") })
		require.NoError(t, logger.Flush(time.Second))

		assert.Equal(t, []string{`ERROR "still logged"`}, out.Lines())
		assert.Equal(t, Stats{Failed: 1}, b.Stats())
	})

	t.Run("panic", func(t *testing.T) {
		var diagnostics []string
		logger, out := createTestLogger(t)
		ch := &fakeChannel{panicMsg: "toast container missing"}
		b := installTestBridge(t, logger, ch, WithDiagnostics(func(format string, args ...any) {
			diagnostics = append(diagnostics, format)
		}))

		assert.NotPanics(t, func() { logger.Error("still logged") })
		require.NoError(t, logger.Flush(time.Second))

		assert.Len(t, out.Lines(), 1)
		assert.Equal(t, Stats{Failed: 1}, b.Stats())
		require.Len(t, diagnostics, 1)
		assert.Contains(t, diagnostics[0], "panicked")
	})

	t.Run("nil channel in wrap", func(t *testing.T) {
		calls := 0
		fn := Wrap(func(...any) { calls++ }, nil)
		assert.NotPanics(t, func() { fn("x") })
		assert.Equal(t, 1, calls)
	})
}

func TestUnmountedToaster(t *testing.T) {
	logger, out := createTestLogger(t)
	toaster, err := notify.NewToaster(notify.DefaultOptions())
	require.NoError(t, err)
	defer toaster.Close()

	b := installTestBridge(t, logger, toaster)

	logger.Error("before mount")
	assert.Equal(t, Stats{Failed: 1}, b.Stats())

	toaster.Mount()
	logger.Error("after mount")
	require.NoError(t, logger.Flush(time.Second))

	assert.Len(t, out.Lines(), 2)
	active := toaster.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "after mount", active[0].Text)
	assert.Equal(t, notify.SeverityError, active[0].Severity)
}

func TestUninstall(t *testing.T) {
	logger, _ := createTestLogger(t)
	ch := &fakeChannel{}

	b, err := Install(logger, ch)
	require.NoError(t, err)
	assert.True(t, b.Installed())

	assert.True(t, b.Uninstall())
	assert.False(t, b.Uninstall())
	assert.False(t, b.Installed())
	assert.Equal(t, 0, logger.ObserverCount())

	logger.Error("unobserved")
	assert.Empty(t, ch.Texts())

	// A fresh install after uninstall creates a new bridge
	again := installTestBridge(t, logger, ch)
	assert.NotSame(t, b, again)
	logger.Error("observed")
	assert.Equal(t, []string{"observed"}, ch.Texts())
}

func TestInstallErrors(t *testing.T) {
	logger, _ := createTestLogger(t)

	_, err := Install(nil, &fakeChannel{})
	assert.ErrorIs(t, err, ErrNilLogger)

	_, err = Install(logger, nil)
	assert.ErrorIs(t, err, ErrNilChannel)

	_, err = Install(logger, funcChannel(func(string) error { return nil }))
	assert.ErrorIs(t, err, ErrChannelNotComparable)

	// Comparable type, but the interface field holds a func
	_, err = Install(logger, holderChannel{hook: func() {}})
	assert.ErrorIs(t, err, ErrChannelNotComparable)

	b, err := Install(logger, holderChannel{hook: "named"})
	require.NoError(t, err)
	assert.True(t, b.Uninstall())
}

func TestInstallDefault(t *testing.T) {
	cfg := toastlog.DefaultConfig()
	cfg.EnableConsole = false
	require.NoError(t, toastlog.Default().ApplyConfig(cfg))

	toaster, err := notify.NewToaster(notify.DefaultOptions())
	require.NoError(t, err)
	toaster.Mount()
	defer toaster.Close()

	b, err := InstallDefault(toaster)
	require.NoError(t, err)
	defer b.Uninstall()

	toastlog.Error("process-wide", 7)

	active := toaster.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "process-wide 7", active[0].Text)
}

func TestConcurrentReports(t *testing.T) {
	logger, _ := createTestLogger(t)
	toaster, err := notify.NewToaster(notify.DefaultOptions())
	require.NoError(t, err)
	toaster.Mount()
	defer toaster.Close()
	b := installTestBridge(t, logger, toaster)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Error("worker failed", id)
		}(i)
	}
	wg.Wait()

	assert.Len(t, toaster.Active(), 25)
	assert.Equal(t, uint64(25), b.Stats().Reported)
}
