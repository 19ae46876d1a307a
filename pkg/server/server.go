package server

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/otel/trace"

	"msgserve/internal/metrics"
	"msgserve/pkg/cancellation"
)

// Application is the business-logic collaborator invoked once per framed
// request. Handle is called concurrently from many connection goroutines and
// must be safe for concurrent use; any shared mutable state across
// connections is the application's own responsibility, not the server's.
//
// The token lets deep application logic poll for cancellation during long
// operations.
type Application interface {
	Handle(req []byte, token cancellation.Token) []byte
}

// Server owns the listening socket and an application handler. Construct one
// with Bind, then call Listen.
type Server struct {
	app          Application
	listener     net.Listener
	localAddr    string
	readBufSize  int
	pollInterval time.Duration
	log          *slog.Logger
	tracer       trace.Tracer
	source       *cancellation.Source
}

// Bind resolves and binds a TCP listening socket for the given application.
// No partial state is left behind on failure.
func Bind(addr string, app Application, opts ...Option) (*Server, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if o.tlsConfig != nil {
		ln = tls.NewListener(ln, o.tlsConfig)
	}

	s := &Server{
		app:          app,
		listener:     ln,
		localAddr:    ln.Addr().String(),
		readBufSize:  o.readBufSize,
		pollInterval: o.pollInterval,
		log:          o.log,
		tracer:       o.tracer,
		source:       cancellation.NewSource(),
	}
	s.log.Info("server listening", "addr", s.localAddr)
	return s, nil
}

// LocalAddr returns the resolved listen address for diagnostics.
func (s *Server) LocalAddr() string {
	return s.localAddr
}

// Token returns a cancellation token bound to this server's flag, for wiring
// external shutdown such as signal handlers.
func (s *Server) Token() cancellation.Token {
	return s.source.Token()
}

// Listen blocks until any component of the system requests shutdown.
//
// It spawns the accept goroutine, then polls the shared flag on the
// configured interval. It returns once cancellation is observed, not when
// connections have drained: spawned handler goroutines exit at their own
// next poll point. The listener is closed on return, which also unblocks a
// parked accept call.
func (s *Server) Listen() error {
	defer s.listener.Close()

	go s.acceptLoop(s.source.Token())

	for !s.source.IsCancelled() {
		time.Sleep(s.pollInterval)
	}
	s.log.Info("server stopping", "addr", s.localAddr)
	return nil
}

// acceptLoop accepts connections until cancelled, spawning one handler
// goroutine per connection. An accept error is fatal for the whole server:
// the listening socket is presumed compromised, so the loop logs, triggers
// global cancellation and exits.
func (s *Server) acceptLoop(tok cancellation.Token) {
	for !tok.IsCancelled() {
		conn, err := s.listener.Accept()
		if err != nil {
			if tok.IsCancelled() {
				// Listener closed by a shutdown already in progress.
				return
			}
			s.log.Error("accepting connection failed", "err", err)
			metrics.AcceptFailures.Inc()
			tok.Cancel()
			return
		}
		peer := conn.RemoteAddr().String()
		s.log.Info("incoming connection", "peer", peer)
		metrics.ConnectionsAccepted.Inc()
		go s.handleConn(conn, peer, tok)
	}
}
