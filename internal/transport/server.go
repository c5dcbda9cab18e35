package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/logger"
)

// Handler resolves one request into a result or a structured error,
// matching router.Router.Handle's signature without importing
// router directly (avoids an import cycle: router depends on
// session, not on transport).
type Handler func(ctx context.Context, method string, params json.RawMessage) (any, *apperr.Error)

// Server listens on a unix-domain socket (or TCP loopback fallback)
// and serves one Handler: created at daemon start, torn down on ctx
// cancellation, socket file removed either way.
type Server struct {
	handler    Handler
	network    string // "unix" or "tcp"
	address    string
	workers    int
	inFlight   sync.WaitGroup
	listener   net.Listener
}

// NewUnixServer listens on socketPath, mode 0600 (authentication by
// endpoint ownership).
func NewUnixServer(socketPath string, workers int, handler Handler) *Server {
	return &Server{handler: handler, network: "unix", address: socketPath, workers: workers}
}

// NewTCPServer listens on 127.0.0.1:port, used only as a fallback on
// systems without unix sockets.
func NewTCPServer(port int, workers int, handler Handler) *Server {
	return &Server{handler: handler, network: "tcp", address: "127.0.0.1:" + strconv.Itoa(port), workers: workers}
}

// ListenAndServe blocks, accepting connections and dispatching each
// to its own goroutine (a worker-pool semaphore, taken around each
// handler call, bounds concurrent request handling, not connection
// count). It
// returns when ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.network == "unix" {
		os.Remove(s.address)
	}

	ln, err := net.Listen(s.network, s.address)
	if err != nil {
		return apperr.Wrap(apperr.CodeSystem, apperr.CategorySystem, "listen "+s.network+" "+s.address, err)
	}
	if s.network == "unix" {
		os.Chmod(s.address, 0600)
	}
	s.listener = ln

	sem := make(chan struct{}, maxInt(s.workers, 1))

	errCh := make(chan error, 1)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				errCh <- err
				return
			}
			s.inFlight.Add(1)
			go func() {
				defer s.inFlight.Done()
				s.serveConn(ctx, conn, sem)
			}()
		}
	}()

	select {
	case <-ctx.Done():
		ln.Close()
		s.inFlight.Wait()
		if s.network == "unix" {
			os.Remove(s.address)
		}
		return nil
	case err := <-errCh:
		if s.network == "unix" {
			os.Remove(s.address)
		}
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn, sem chan struct{}) {
	defer conn.Close()
	for {
		var req Request
		if err := readFrame(conn, &req); err != nil {
			return
		}

		sem <- struct{}{}
		reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		result, appErr := s.handler(reqCtx, req.Method, req.Params)
		cancel()
		<-sem

		resp := Response{ID: req.ID}
		if appErr != nil {
			logger.WithRequest(req.Method).Debug("request failed", "code", appErr.Code)
			resp.Error = &WireError{
				Code:       string(appErr.Code),
				Message:    appErr.Message,
				Category:   string(appErr.Category),
				Retryable:  appErr.Retryable,
				Suggestion: appErr.Suggestion,
			}
		} else {
			resp.Result = result
		}

		if err := writeFrame(conn, resp); err != nil {
			return
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
