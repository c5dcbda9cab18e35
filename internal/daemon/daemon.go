// Package daemon wires configuration, logging, the session registry,
// the request router, and the transport server together into the
// long-running agent-tuid process: context+cancel, signal handling,
// and an errCh select drive its lifecycle.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agent-tui/agent-tui/internal/config"
	"github.com/agent-tui/agent-tui/internal/logger"
	"github.com/agent-tui/agent-tui/internal/router"
	"github.com/agent-tui/agent-tui/internal/session"
	"github.com/agent-tui/agent-tui/internal/transport"
)

// Run starts the daemon and blocks until it is asked to stop, either
// by SIGTERM/SIGINT or by a daemon.stop request over the transport.
func Run(cfg config.Config) error {
	sessions := session.NewManager(session.Config{
		RingBufferBytes: cfg.RingBufferBytes,
		KillGraceMillis: cfg.KillGraceMillis,
	}, cfg.MaxSessions)

	r := router.New(sessions)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	router.StopFunc = cancel

	var srv *transport.Server
	switch cfg.Transport {
	case "tcp":
		srv = transport.NewTCPServer(cfg.TCPPort, cfg.Workers, r.Handle)
	default:
		srv = transport.NewUnixServer(cfg.SocketPath, cfg.Workers, r.Handle)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("transport listening", "network", cfg.Transport, "address", cfg.SocketPath)
		errCh <- srv.ListenAndServe(ctx)
	}()

	logger.Info("agent-tui daemon started", "socket", cfg.SocketPath, "max_sessions", cfg.MaxSessions)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			cancel()
			killAll(sessions)
			return fmt.Errorf("transport error: %w", err)
		}
	}

	killAll(sessions)
	// Grace period for in-flight requests to observe cancellation.
	time.Sleep(200 * time.Millisecond)
	return nil
}

func killAll(sessions *session.Manager) {
	for _, s := range sessions.List() {
		logger.WithSession(s.ID).Debug("killing session on daemon shutdown")
		sessions.Kill(s.ID, false)
	}
}
