package cancellation

import (
	"bytes"
	"fmt"
	"runtime"
	"strconv"
)

// Guard is a scope guard that triggers cancellation when closed unless it was
// explicitly disarmed first. Typical use brackets a fallible section:
//
//	guard := token.Guard()
//	defer guard.Close()
//	doRiskyWork()
//	guard.Disarm()
//
// The deferred Close runs on every exit path, including panic unwinds, so a
// crash anywhere inside the section escalates to full shutdown without every
// call site having to signal failure explicitly.
//
// A Guard is confined to the goroutine that created it: cancellation-on-close
// means "this specific call stack did not finish cleanly", and handing the
// guard to another goroutine would blur whose stack actually failed. The
// constraint cannot be expressed in the type system, so it is enforced with a
// runtime assertion against the owning goroutine ID.
type Guard struct {
	token Token
	armed bool
	owner uint64
}

func newGuard(t Token) *Guard {
	return &Guard{
		token: t,
		armed: true,
		owner: goroutineID(),
	}
}

// Disarm marks the guarded section as completed successfully, so the eventual
// Close performs no action.
func (g *Guard) Disarm() {
	g.assertOwner("Disarm")
	g.armed = false
}

// Close triggers cancellation via the captured token if the guard is still
// armed. Safe to call more than once; only the first armed close triggers.
func (g *Guard) Close() {
	g.assertOwner("Close")
	if g.armed {
		g.armed = false
		g.token.Cancel()
	}
}

func (g *Guard) assertOwner(op string) {
	if id := goroutineID(); id != g.owner {
		panic(fmt.Sprintf("cancellation: Guard.%s on goroutine %d, but the guard is owned by goroutine %d", op, id, g.owner))
	}
}

// goroutineID parses the current goroutine's ID out of the stack header
// ("goroutine <id> [running]:"). There is no supported API for this; the
// ID is used only for the ownership assertion, never for logic.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		panic("cancellation: malformed goroutine stack header")
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("cancellation: malformed goroutine ID: %v", err))
	}
	return id
}
