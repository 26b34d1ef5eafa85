// Package server exposes toaster state to user interfaces over HTTP and TCP,
// and accepts error reports from browsers.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	"github.com/lixenwraith/toastlog"
	"github.com/lixenwraith/toastlog/compat"
	"github.com/lixenwraith/toastlog/notify"
)

const toastsPath = "/toasts"

// HTTPServer serves the toast list, an SSE event stream, and browser error intake
type HTTPServer struct {
	cfg     Config
	toaster *notify.Toaster
	logger  *toastlog.Logger
	server  *fasthttp.Server
	parsers fastjson.ParserPool

	ln     net.Listener
	ctx    context.Context // Cancelled on Shutdown to end event streams
	cancel context.CancelFunc
}

// NewHTTPServer creates an HTTP server; fasthttp's own diagnostics go to logger
func NewHTTPServer(cfg Config, toaster *notify.Toaster, logger *toastlog.Logger) *HTTPServer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &HTTPServer{
		cfg:     cfg,
		toaster: toaster,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.server = &fasthttp.Server{
		Handler:            s.Handler,
		Logger:             compat.NewFastHTTPAdapter(logger),
		Name:               "roomshell",
		MaxRequestBodySize: int(cfg.MaxBodySizeKB * 1024),
		ReadTimeout:        5 * time.Second,
		IdleTimeout:        120 * time.Second,
	}
	return s
}

// Start listens on the configured address and serves in the background
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return fmtErrorf("failed to listen on %s: %w", s.cfg.HTTPAddr, err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil {
			s.logger.Error("server: http serve failed:", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, empty before Start
func (s *HTTPServer) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown ends event streams and waits for open connections to close
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.cancel()
	if s.ln == nil {
		return nil
	}
	if err := s.server.ShutdownWithContext(ctx); err != nil {
		return fmtErrorf("http shutdown: %w", err)
	}
	return nil
}

// Handler routes requests
func (s *HTTPServer) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())

	switch {
	case path == toastsPath && ctx.IsGet():
		s.handleList(ctx)
	case strings.HasPrefix(path, toastsPath+"/") && ctx.IsDelete():
		s.handleDismiss(ctx, strings.TrimPrefix(path, toastsPath+"/"))
	case path == "/events" && ctx.IsGet():
		s.handleEvents(ctx)
	case path == "/errors" && ctx.IsPost():
		s.handleClientError(ctx)
	case path == toastsPath || path == "/events" || path == "/errors":
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *HTTPServer) handleList(ctx *fasthttp.RequestCtx) {
	data, err := json.Marshal(s.toaster.Active())
	if err != nil {
		ctx.Error("encoding failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}

func (s *HTTPServer) handleDismiss(ctx *fasthttp.RequestCtx, id string) {
	if id == "" || !s.toaster.Dismiss(id) {
		ctx.Error("toast not found", fasthttp.StatusNotFound)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

// handleClientError accepts a JSON array of console arguments and reports them as one error
func (s *HTTPServer) handleClientError(ctx *fasthttp.RequestCtx) {
	args, err := s.parseClientArgs(ctx.PostBody())
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	s.logger.Error(append([]any{"client:"}, args...)...)
	ctx.SetStatusCode(fasthttp.StatusAccepted)
}

// parseClientArgs keeps strings as text and every other value as its raw JSON
func (s *HTTPServer) parseClientArgs(body []byte) ([]any, error) {
	p := s.parsers.Get()
	defer s.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmtErrorf("invalid JSON body: %w", err)
	}
	items, err := v.Array()
	if err != nil {
		return nil, fmtErrorf("body must be a JSON array of arguments")
	}

	args := make([]any, 0, len(items))
	for _, item := range items {
		if item.Type() == fastjson.TypeString {
			b, _ := item.StringBytes()
			args = append(args, string(b))
			continue
		}
		args = append(args, json.RawMessage(item.MarshalTo(nil)))
	}
	return args, nil
}

// handleEvents streams toast events as Server-Sent Events until the client leaves or Shutdown
func (s *HTTPServer) handleEvents(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")

	keepalive := time.Duration(s.cfg.SSEKeepaliveMs) * time.Millisecond
	streamCtx, cancel := context.WithCancel(s.ctx)
	events := s.toaster.Subscribe(streamCtx)

	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepalive)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeSSE(w, ev); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
			case <-streamCtx.Done():
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}

// writeSSE writes one event frame
func writeSSE(w *bufio.Writer, ev notify.Event) error {
	data, err := json.Marshal(ev.Toast)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("event: " + string(ev.Type) + "\nid: " + ev.Toast.ID + "\ndata: "); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.WriteString("\n\n")
	return err
}
