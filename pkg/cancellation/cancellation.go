package cancellation

import (
	"errors"
	"sync/atomic"
)

// CancelMessage is the fixed marker text carried by ErrCancelled. Top-level
// recover sites match on it to tell voluntary shutdown apart from a bug.
const CancelMessage = "requested cancellation"

// ErrCancelled is the panic value raised by PanicIfCancelled and
// CancelAndPanic when aborting the current operation.
var ErrCancelled = errors.New(CancelMessage)

// Source owns the shared cancellation flag for one server instance.
//
// The flag starts false and is monotonic: once set it never reverts for the
// lifetime of the process. All Tokens handed out by a Source observe and
// mutate the same flag.
type Source struct {
	flag atomic.Bool
}

// NewSource returns a Source with an unset flag.
func NewSource() *Source {
	return &Source{}
}

// Token returns a handle bound to this source's flag. Tokens are cheap values
// and may be copied freely across goroutines.
func (s *Source) Token() Token {
	return Token{flag: &s.flag}
}

// IsCancelled reports whether cancellation has been requested.
func (s *Source) IsCancelled() bool {
	return s.flag.Load()
}

// Cancel requests cancellation. Idempotent and safe to call concurrently;
// cancellation cannot fail.
func (s *Source) Cancel() {
	s.flag.Store(true)
}

// Token is a lightweight handle for polling and triggering a Source's flag.
// The zero Token is not valid; obtain Tokens from a Source.
type Token struct {
	flag *atomic.Bool
}

// IsCancelled reports whether cancellation has been requested. Non-blocking;
// returns true forever after the first trigger.
func (t Token) IsCancelled() bool {
	return t.flag.Load()
}

// Cancel requests cancellation. Idempotent and safe to call concurrently.
func (t Token) Cancel() {
	t.flag.Store(true)
}

// PanicIfCancelled aborts the current operation by panicking with
// ErrCancelled if the flag is set. Long-running loops use this as a
// checkpoint to unwind promptly without threading an early-return value
// through every call level.
func (t Token) PanicIfCancelled() {
	if t.IsCancelled() {
		panic(ErrCancelled)
	}
}

// CancelAndPanic triggers cancellation and immediately panics with
// ErrCancelled: "stop everyone" and "stop myself" in one step. Never returns.
func (t Token) CancelAndPanic() {
	t.Cancel()
	panic(ErrCancelled)
}

// Guard begins an armed scope guard owned by the calling goroutine. See the
// Guard type for the disarm/close protocol.
func (t Token) Guard() *Guard {
	return newGuard(t)
}

// IsCancelRequested reports whether a recovered panic value is the
// cancellation marker rather than a genuine application fault.
func IsCancelRequested(recovered any) bool {
	err, ok := recovered.(error)
	return ok && errors.Is(err, ErrCancelled)
}
