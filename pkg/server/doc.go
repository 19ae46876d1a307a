// Package server implements the thread-per-connection serving core of
// msgserve: a TCP listener that routes framed requests to an application and
// shuts the whole process down cooperatively on any server-fatal fault.
//
// Features:
//   - One accept goroutine plus one handler goroutine per accepted connection,
//     all carrying cloned tokens of a single cancellation source
//   - Accept failures trigger global cancellation; connection-local read and
//     write faults terminate only their own connection
//   - Application panics escalate to full shutdown through an armed scope
//     guard, while the cancellation marker unwinds quietly
//   - Functional options for the read buffer size, supervisor poll interval,
//     structured logger, OpenTelemetry tracer, and TLS
//
// Usage:
//  1. Bind an address and an Application with Bind
//  2. Call Listen; it blocks until any component requests shutdown
//  3. Wire external shutdown (signals, admin endpoints) through Token
//
// Listen is signal-and-move-on: it returns once cancellation is observed,
// without waiting for in-flight connection goroutines to drain. A handler
// parked in a blocking read observes cancellation only at its next poll
// point; closing the listener on return bounds this for the accept path.
package server
