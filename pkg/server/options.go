package server

import (
	"crypto/tls"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultReadBufferSize is the per-connection read buffer size (1MB).
	// This needs to be tuned for the application's typical message size.
	DefaultReadBufferSize = 1024 * 1024

	// DefaultPollInterval is how often the supervisor checks the
	// cancellation flag while Listen blocks.
	DefaultPollInterval = 100 * time.Millisecond
)

type options struct {
	readBufSize  int
	pollInterval time.Duration
	log          *slog.Logger
	tracer       trace.Tracer
	tlsConfig    *tls.Config
}

// Option configures a Server at Bind time.
type Option func(*options)

func defaultOptions() options {
	return options{
		readBufSize:  DefaultReadBufferSize,
		pollInterval: DefaultPollInterval,
		log:          slog.Default(),
		tracer:       noop.NewTracerProvider().Tracer("msgserve"),
	}
}

// WithReadBufferSize sets the buffered reader/writer size used when framing
// each connection's stream. Values below one are ignored.
func WithReadBufferSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readBufSize = n
		}
	}
}

// WithPollInterval sets the supervisor's cancellation poll interval. Listen
// returns within one interval of the flag being set. Non-positive values are
// ignored.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLogger sets the structured logger used by the server and its
// connection handlers.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithTracer sets the tracer used to span each application dispatch. The
// default is a no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithTLSConfig wraps the listener in TLS using the given configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}
