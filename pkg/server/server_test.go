package server

import (
	"crypto/tls"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msgserve/internal/echoapp"
	"msgserve/pkg/cancellation"
	"msgserve/pkg/certgen"
	"msgserve/pkg/codec"
)

const testPollInterval = 20 * time.Millisecond

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer binds an echoapp server on a loopback port and runs Listen on
// its own goroutine. The returned channel closes when Listen returns.
func startServer(t *testing.T, opts ...Option) (*Server, <-chan struct{}) {
	t.Helper()

	opts = append([]Option{
		WithLogger(discardLogger()),
		WithPollInterval(testPollInterval),
	}, opts...)

	srv, err := Bind("127.0.0.1:0", echoapp.New(discardLogger()), opts...)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, srv.Listen())
	}()
	t.Cleanup(func() {
		srv.Token().Cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Listen did not return after cancellation")
		}
	})

	return srv, done
}

func dial(t *testing.T, addr string) (net.Conn, *codec.Codec) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err, "failed to connect to server")
	t.Cleanup(func() { conn.Close() })
	return conn, codec.New(conn, 4096)
}

func roundTrip(t *testing.T, c *codec.Codec, req string) string {
	t.Helper()
	require.NoError(t, c.Write([]byte(req)), "failed to send request")
	resp, err := c.Next()
	require.NoError(t, err, "failed to read response")
	return string(resp)
}

func TestBindError(t *testing.T) {
	_, err := Bind("256.256.256.256:0", echoapp.New(discardLogger()), WithLogger(discardLogger()))
	require.Error(t, err)
}

func TestRequestResponseRoundTrip(t *testing.T) {
	srv, _ := startServer(t)
	_, c := dial(t, srv.LocalAddr())

	assert.Equal(t, "hello", roundTrip(t, c, "echo hello"))
	assert.Equal(t, "ok", roundTrip(t, c, "set answer 42"))
	assert.Equal(t, "42", roundTrip(t, c, "get answer"))
}

func TestCleanClientCloseIsLocal(t *testing.T) {
	srv, _ := startServer(t)

	conn, c := dial(t, srv.LocalAddr())
	assert.Equal(t, "hi", roundTrip(t, c, "echo hi"))
	require.NoError(t, conn.Close())

	// The server must keep serving new connections.
	time.Sleep(2 * testPollInterval)
	assert.False(t, srv.source.IsCancelled(), "a clean peer close must not escalate")

	_, c2 := dial(t, srv.LocalAddr())
	assert.Equal(t, "still here", roundTrip(t, c2, "echo still here"))
}

func TestMalformedRequestTerminatesOnlyItsConnection(t *testing.T) {
	srv, _ := startServer(t)

	bad, _ := dial(t, srv.LocalAddr())
	_, goodCodec := dial(t, srv.LocalAddr())

	// A length prefix far beyond the frame limit is a decode error.
	hdr := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(hdr, codec.MaxFrameSize+1)
	_, err := bad.Write(hdr[:n])
	require.NoError(t, err)

	// The faulty connection gets closed by the server.
	require.NoError(t, bad.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 1)
	_, err = bad.Read(buf)
	assert.ErrorIs(t, err, io.EOF, "server should close the faulty connection")

	// The concurrent well-behaved connection is unaffected.
	assert.Equal(t, "unaffected", roundTrip(t, goodCodec, "echo unaffected"))
	assert.False(t, srv.source.IsCancelled(), "a bad client is a local fault")
}

func TestCancellationStopsConnectionsAndListen(t *testing.T) {
	srv, done := startServer(t)

	_, c1 := dial(t, srv.LocalAddr())
	_, c2 := dial(t, srv.LocalAddr())
	assert.Equal(t, "one", roundTrip(t, c1, "echo one"))
	assert.Equal(t, "two", roundTrip(t, c2, "echo two"))

	start := time.Now()
	srv.Token().Cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after cancellation")
	}
	assert.Less(t, time.Since(start), 10*testPollInterval,
		"Listen must return within the order of one poll interval")

	// A handler parked in a blocking read observes cancellation only once
	// that read returns: the in-flight request is answered, then the loop
	// exits at its next poll and closes the connection.
	assert.Equal(t, "after", roundTrip(t, c1, "echo after"))
	_ = c1.Write([]byte("echo again"))
	_, err := c1.Next()
	assert.Error(t, err, "the loop must stop at its next poll point")
}

func TestAcceptFailureCancelsServer(t *testing.T) {
	srv, done := startServer(t)

	// Closing the listener underneath the accept loop is a server-fatal
	// fault even with zero active connections.
	require.NoError(t, srv.listener.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return after accept failure")
	}
	assert.True(t, srv.source.IsCancelled())
}

func TestApplicationPanicEscalates(t *testing.T) {
	opts := []Option{WithLogger(discardLogger()), WithPollInterval(testPollInterval)}
	srv, err := Bind("127.0.0.1:0", panicApp{}, opts...)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, srv.Listen())
	}()

	_, c := dial(t, srv.LocalAddr())
	require.NoError(t, c.Write([]byte("boom")))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("a panicking application must shut the whole server down")
	}
	assert.True(t, srv.source.IsCancelled())
}

func TestTokenCheckpointStopsHandlerQuietly(t *testing.T) {
	opts := []Option{WithLogger(discardLogger()), WithPollInterval(testPollInterval)}
	srv, err := Bind("127.0.0.1:0", checkpointApp{}, opts...)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, srv.Listen())
	}()

	_, c := dial(t, srv.LocalAddr())
	require.NoError(t, c.Write([]byte("stop")))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("CancelAndPanic inside the application must shut the server down")
	}
	assert.True(t, srv.source.IsCancelled())
}

func TestTLSRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tlsCfg, err := certgen.ServerTLSConfig(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"))
	require.NoError(t, err)

	srv, _ := startServer(t, WithTLSConfig(tlsCfg))

	conn, err := tls.Dial("tcp", srv.LocalAddr(), &tls.Config{InsecureSkipVerify: true})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := codec.New(conn, 4096)
	assert.Equal(t, "secure", roundTrip(t, c, "echo secure"))
}

// panicApp panics on every request, standing in for a buggy application.
type panicApp struct{}

func (panicApp) Handle([]byte, cancellation.Token) []byte {
	panic("application bug")
}

// checkpointApp triggers voluntary shutdown through the cancellation marker.
type checkpointApp struct{}

func (checkpointApp) Handle(_ []byte, token cancellation.Token) []byte {
	token.CancelAndPanic()
	return nil
}
