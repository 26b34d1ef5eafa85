package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/panjf2000/gnet/v2"

	"github.com/lixenwraith/toastlog"
	"github.com/lixenwraith/toastlog/compat"
	"github.com/lixenwraith/toastlog/notify"
)

// StreamServer pushes toast events to TCP subscribers as newline-delimited JSON.
// New connections first receive a "shown" line for every active toast.
type StreamServer struct {
	gnet.BuiltinEventEngine

	addr    string
	toaster *notify.Toaster
	logger  *toastlog.Logger

	mu    sync.Mutex
	conns map[gnet.Conn]struct{}
	eng   gnet.Engine

	booted chan struct{}
	done   chan error
	cancel context.CancelFunc
}

// NewStreamServer creates a stream server; gnet's own diagnostics go to logger
func NewStreamServer(cfg Config, toaster *notify.Toaster, logger *toastlog.Logger) *StreamServer {
	return &StreamServer{
		addr:    cfg.StreamAddr,
		toaster: toaster,
		logger:  logger,
		conns:   make(map[gnet.Conn]struct{}),
		booted:  make(chan struct{}),
		done:    make(chan error, 1),
	}
}

// Start runs the gnet engine and waits until it is accepting connections
func (s *StreamServer) Start(ctx context.Context) error {
	go func() {
		s.done <- gnet.Run(s, "tcp://"+s.addr,
			gnet.WithMulticore(false),
			gnet.WithReusePort(true),
			gnet.WithLogger(compat.NewGnetAdapter(s.logger, compat.WithGnetPrefix("stream:"))),
		)
	}()

	select {
	case <-s.booted:
	case err := <-s.done:
		return fmtErrorf("stream engine failed on %s: %w", s.addr, err)
	case <-ctx.Done():
		return ctx.Err()
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.pump(s.toaster.Subscribe(pumpCtx))
	return nil
}

// Stop ends the event pump and stops the engine
func (s *StreamServer) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	if err := s.eng.Stop(ctx); err != nil {
		return fmtErrorf("stream stop: %w", err)
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// ConnCount returns the number of connected subscribers
func (s *StreamServer) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *StreamServer) OnBoot(eng gnet.Engine) gnet.Action {
	s.eng = eng
	close(s.booted)
	s.logger.Info("stream: listening on", s.addr)
	return gnet.None
}

func (s *StreamServer) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()

	return snapshotLines(s.toaster.Active()), gnet.None
}

func (s *StreamServer) OnClose(c gnet.Conn, err error) gnet.Action {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("stream: subscriber closed:", err)
	}
	return gnet.None
}

// OnTraffic discards input; the stream is one-way
func (s *StreamServer) OnTraffic(c gnet.Conn) gnet.Action {
	_, _ = c.Discard(-1)
	return gnet.None
}

func (s *StreamServer) pump(events <-chan notify.Event) {
	for ev := range events {
		line, err := encodeEvent(ev)
		if err != nil {
			continue
		}
		s.broadcast(line)
	}
}

func (s *StreamServer) broadcast(line []byte) {
	s.mu.Lock()
	conns := make([]gnet.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.AsyncWrite(line, nil)
	}
}

// encodeEvent returns the event as one JSON line
func encodeEvent(ev notify.Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func snapshotLines(toasts []notify.Toast) []byte {
	var out []byte
	for _, t := range toasts {
		line, err := encodeEvent(notify.Event{Type: notify.EventShown, Toast: t})
		if err != nil {
			continue
		}
		out = append(out, line...)
	}
	return out
}
