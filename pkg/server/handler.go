package server

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"msgserve/internal/metrics"
	"msgserve/pkg/cancellation"
	"msgserve/pkg/codec"
	"msgserve/pkg/ident"
)

// handleConn runs one connection's request loop on its own goroutine. The
// connection and its codec are owned exclusively by this goroutine.
//
// Read and write faults are connection-local: they end this loop without
// touching the shared flag. An application panic is not: the armed guard in
// dispatch cancels everyone during the unwind, and the recover here keeps the
// process alive while the rest of the server winds down.
func (s *Server) handleConn(conn io.ReadWriteCloser, peer string, tok cancellation.Token) {
	log := s.log.With(slog.String("peer", peer), slog.String("conn", ident.UUIDString()))

	metrics.ConnectionsActive.Inc()
	defer func() {
		metrics.ConnectionsActive.Dec()
		conn.Close()
		if r := recover(); r != nil {
			if cancellation.IsCancelRequested(r) {
				log.Info("connection stopped on cancellation")
				return
			}
			log.Error("connection handler panicked", "panic", r)
		}
	}()

	c := codec.New(conn, s.readBufSize)
	ctx := context.Background()
	log.Info("listening for incoming requests")
	for !tok.IsCancelled() {
		req, err := c.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Info("client terminated stream")
			} else {
				log.Error("failed to read incoming request", "err", err)
				metrics.ConnectionFaults.Inc()
			}
			return
		}
		resp := s.dispatch(ctx, req, tok)
		if err := c.Write(resp); err != nil {
			log.Error("failed to send response", "err", err)
			metrics.ConnectionFaults.Inc()
			return
		}
		metrics.RequestsHandled.Inc()
	}
}

// dispatch hands one request to the application under an armed scope guard,
// so a panic inside Handle escalates to global cancellation while it unwinds.
func (s *Server) dispatch(ctx context.Context, req []byte, tok cancellation.Token) []byte {
	_, span := s.tracer.Start(ctx, "server.dispatch")
	defer span.End()
	span.SetAttributes(attribute.Int("request.bytes", len(req)))

	guard := tok.Guard()
	defer guard.Close()
	resp := s.app.Handle(req, tok)
	guard.Disarm()
	return resp
}
