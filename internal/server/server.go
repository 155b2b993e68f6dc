// Package server implements the TCP transport: one goroutine per client
// connection, one JSON request and one JSON response per call. Framing is the
// stream decoder's concern; the dispatcher only ever sees fully decoded
// requests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/novabank/ledger_service/internal/app/dispatch"
	"github.com/novabank/ledger_service/internal/app/metrics"
	"github.com/novabank/ledger_service/internal/protocol"
	"github.com/novabank/ledger_service/pkg/logger"
)

// Config holds transport configuration.
type Config struct {
	Addr string

	// RequestsPerSecond/Burst bound each remote host's request rate.
	// Zero disables limiting.
	RequestsPerSecond int
	Burst             int
}

// Server accepts client connections and feeds decoded requests to the
// dispatcher.
type Server struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	log        *logger.Logger
	limiter    *connLimiter

	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New constructs a server around the dispatcher.
func New(cfg Config, d *dispatch.Dispatcher, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("server")
	}
	return &Server{
		cfg:        cfg,
		dispatcher: d,
		log:        log,
		limiter:    newConnLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
}

// Start binds the listener and begins accepting connections in the
// background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.log.WithField("addr", listener.Addr().String()).Info("ledger server listening")

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	return nil
}

// Addr returns the bound listener address. Valid after Start.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Stop closes the listener, aborts in-flight connection handlers and waits
// for them to drain. Any transfer already inside the ledger's critical
// section completes; a dropped connection never leaves a partial mutation.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	s.log.Info("ledger server stopped")
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.WithError(err).Warn("accept failed")
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

// handleConnection serves one client until it disconnects or the server
// stops.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}

	metrics.ConnectionOpened()
	defer metrics.ConnectionClosed()
	s.log.WithField("remote", remote).Info("client connected")
	defer s.log.WithField("remote", remote).Info("client disconnected")

	// Unblock the decoder when the server stops.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req protocol.Request
		if err := decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.log.WithField("remote", remote).WithError(err).Warn("malformed request")
			// The stream position is unreliable after a syntax error;
			// report and drop the connection.
			_ = encoder.Encode(protocol.Errorf("malformed request"))
			return
		}

		var resp protocol.Response
		if !s.limiter.allow(host) {
			resp = protocol.Errorf("rate limit exceeded")
		} else {
			resp = s.dispatcher.Handle(ctx, req)
		}

		if err := encoder.Encode(resp); err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				s.log.WithField("remote", remote).WithError(err).Warn("write response failed")
			}
			return
		}
	}
}
