package ident

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestUUIDStringFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := UUIDString()
		assert.True(t, uuidPattern.MatchString(id), "unexpected UUID format: %q", id)
	}
}

func TestUUIDStringUniqueness(t *testing.T) {
	const n = 10_000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := UUIDString()
		_, dup := seen[id]
		require.False(t, dup, "duplicate UUID: %q", id)
		seen[id] = struct{}{}
	}
}
