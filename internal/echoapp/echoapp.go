// Package echoapp is the demo application served by the msgserve daemon.
//
// It speaks a small text protocol inside frame payloads:
//
//	echo <text>        -> <text>
//	set <key> <value>  -> ok
//	get <key>          -> <value> or "err not found"
//	del <key>          -> ok
//	id                 -> a fresh UUID
//	sleep <duration>   -> "ok" after the duration, or "err cancelled"
//
// The sleep command polls its cancellation token while waiting, showing how
// application logic deep inside Handle observes server shutdown.
package echoapp

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"msgserve/pkg/cancellation"
	"msgserve/pkg/ident"
)

// sleepPollStep bounds how long a sleep command can go without checking the
// cancellation flag.
const sleepPollStep = 10 * time.Millisecond

// App is a concurrent-safe key/value and echo application. One App instance
// serves every connection; the store is guarded internally.
type App struct {
	log *slog.Logger

	mu    sync.RWMutex
	store map[string]string
}

// New returns an empty App logging through the given logger.
func New(log *slog.Logger) *App {
	return &App{
		log:   log,
		store: make(map[string]string),
	}
}

// Handle serves one request. Safe for concurrent use from any number of
// connection goroutines.
func (a *App) Handle(req []byte, token cancellation.Token) []byte {
	cmd, rest, _ := strings.Cut(string(req), " ")
	switch cmd {
	case "echo":
		return []byte(rest)

	case "set":
		key, value, ok := strings.Cut(rest, " ")
		if !ok || key == "" {
			return []byte("err usage: set <key> <value>")
		}
		a.mu.Lock()
		a.store[key] = value
		a.mu.Unlock()
		return []byte("ok")

	case "get":
		a.mu.RLock()
		value, ok := a.store[rest]
		a.mu.RUnlock()
		if !ok {
			return []byte("err not found")
		}
		return []byte(value)

	case "del":
		a.mu.Lock()
		delete(a.store, rest)
		a.mu.Unlock()
		return []byte("ok")

	case "id":
		return []byte(ident.UUIDString())

	case "sleep":
		return a.sleep(rest, token)

	default:
		a.log.Warn("unknown command", "cmd", cmd)
		return fmt.Appendf(nil, "err unknown command %q", cmd)
	}
}

// sleep waits for the requested duration in short steps, polling the token
// between steps so a long wait does not outlive a shutdown.
func (a *App) sleep(arg string, token cancellation.Token) []byte {
	d, err := time.ParseDuration(arg)
	if err != nil || d < 0 {
		return []byte("err usage: sleep <duration>")
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if token.IsCancelled() {
			return []byte("err cancelled")
		}
		step := min(sleepPollStep, time.Until(deadline))
		time.Sleep(step)
	}
	return []byte("ok")
}
