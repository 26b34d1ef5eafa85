// Command roomshell runs the toast notification service: every error logged in
// the process, or reported by a connected browser, becomes a transient toast.
//
// Usage:
//
//	roomshell [config.toml] [section.key=value ...]
package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lixenwraith/toastlog"
	"github.com/lixenwraith/toastlog/bridge"
	"github.com/lixenwraith/toastlog/notify"
	"github.com/lixenwraith/toastlog/server"
)

const (
	defaultConfigPath = "roomshell.toml"
	shutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "roomshell: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	path := defaultConfigPath
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		path, args = args[0], args[1:]
	}

	cfg, err := loadConfig(path, args...)
	if err != nil {
		return err
	}

	if err := toastlog.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to start logger: %w", err)
	}
	defer func() {
		if err := toastlog.Shutdown(shutdownTimeout); err != nil {
			fmt.Fprintf(os.Stderr, "roomshell: logger shutdown: %v\n", err)
		}
	}()
	logger := toastlog.Default()

	// Route stdlib log output from dependencies into the error path
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger.Writer(toastlog.LevelError))

	toaster, err := notify.NewToaster(cfg.Toast)
	if err != nil {
		return err
	}
	toaster.Mount()
	defer toaster.Close()

	// The channel is mounted, so the bridge can go live
	b, err := bridge.InstallDefault(toaster)
	if err != nil {
		return err
	}
	defer b.Uninstall()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var httpSrv *server.HTTPServer
	if cfg.Server.EnableHTTP {
		httpSrv = server.NewHTTPServer(cfg.Server, toaster, logger)
		if err := httpSrv.Start(); err != nil {
			return err
		}
		logger.Info("roomshell: http listening on", httpSrv.Addr())
	}

	var streamSrv *server.StreamServer
	if cfg.Server.EnableStream {
		streamSrv = server.NewStreamServer(cfg.Server, toaster, logger)
		startCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		err := streamSrv.Start(startCtx)
		cancel()
		if err != nil {
			shutdownHTTP(httpSrv, logger)
			return err
		}
	}

	logger.Info("roomshell: started", "config", path)
	<-ctx.Done()
	logger.Info("roomshell: shutting down")

	if streamSrv != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := streamSrv.Stop(stopCtx); err != nil {
			logger.Warn("roomshell: stream stop:", err)
		}
		cancel()
	}
	shutdownHTTP(httpSrv, logger)

	ls, bs := logger.Stats(), b.Stats()
	logger.Info("roomshell: stopped",
		"records", ls.Processed, "dropped", ls.Dropped,
		"toasts", bs.Reported, "suppressed", bs.Suppressed, "failed", bs.Failed)
	return nil
}

func shutdownHTTP(srv *server.HTTPServer, logger *toastlog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("roomshell: http shutdown:", err)
	}
}
