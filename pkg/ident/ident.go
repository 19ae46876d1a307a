// Package ident provides collision-resistant string identifiers for msgserve.
package ident

import (
	"fmt"

	"github.com/google/uuid"
)

// UUIDString returns a random RFC 4122 version 4 UUID in canonical text form.
//
// It panics if the system entropy source is unavailable: that is an
// unrecoverable environment fault, not a recoverable error, and there is no
// retry policy.
func UUIDString() string {
	id, err := uuid.NewRandom()
	if err != nil {
		panic(fmt.Sprintf("ident: RNG failure: %v", err))
	}
	return id.String()
}
