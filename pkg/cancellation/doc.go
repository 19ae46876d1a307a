// Package cancellation implements the cooperative shutdown signal shared by
// every goroutine of a msgserve server.
//
// Features:
//   - A Source owning a single monotonic cancellation flag per server instance
//   - Freely copyable Tokens for polling and triggering the flag from any goroutine
//   - A scope Guard that triggers cancellation automatically unless disarmed,
//     covering early returns and panic unwinds alike
//   - A distinguished marker (ErrCancelled) so recover sites can tell voluntary
//     shutdown apart from genuine application bugs
//
// Usage:
//  1. Create one Source per server with NewSource
//  2. Hand a Token to every spawned goroutine; Tokens are cheap values and any
//     two Tokens of the same Source observe and mutate the same flag
//  3. Poll IsCancelled at loop heads; call Cancel (or CancelAndPanic) on fatal faults
//  4. Wrap fallible sections in a Guard: defer Close, call Disarm on success
//
// The flag is a pure liveness signal. It is never reset, concurrent triggers
// collapse to the same terminal state, and it must not be used to protect any
// other shared data. Cancellation is cooperative: a goroutine parked in a
// blocking syscall observes the flag only once that call returns.
package cancellation
