package cancellation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelIsMonotonicAndIdempotent(t *testing.T) {
	src := NewSource()
	require.False(t, src.IsCancelled(), "flag must start unset")

	const goroutines = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok := src.Token()
			<-start
			tok.Cancel()
			assert.True(t, tok.IsCancelled(), "flag must be set after Cancel returns")
		}()
	}
	close(start)
	wg.Wait()

	assert.True(t, src.IsCancelled())

	// Repeated triggers collapse to the same terminal state.
	src.Cancel()
	src.Token().Cancel()
	assert.True(t, src.IsCancelled(), "flag must never revert")
}

func TestTokensShareOneFlag(t *testing.T) {
	src := NewSource()
	a := src.Token()
	b := src.Token()
	c := a // tokens are plain values; copies stay bound to the same flag

	b.Cancel()

	assert.True(t, a.IsCancelled())
	assert.True(t, c.IsCancelled())
	assert.True(t, src.IsCancelled())
}

func TestTokensAreIndependentAcrossSources(t *testing.T) {
	first := NewSource()
	second := NewSource()

	first.Token().Cancel()

	assert.True(t, first.IsCancelled())
	assert.False(t, second.IsCancelled())
}

func TestPanicIfCancelled(t *testing.T) {
	src := NewSource()
	tok := src.Token()

	// No-op while the flag is unset.
	tok.PanicIfCancelled()

	tok.Cancel()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a cancellation panic")
		assert.True(t, IsCancelRequested(r))
	}()
	tok.PanicIfCancelled()
	t.Fatal("PanicIfCancelled must not return once the flag is set")
}

func TestCancelAndPanic(t *testing.T) {
	src := NewSource()
	tok := src.Token()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a cancellation panic")
		assert.True(t, IsCancelRequested(r))
		assert.True(t, src.IsCancelled(), "flag must be set before the panic unwinds")
	}()
	tok.CancelAndPanic()
	t.Fatal("CancelAndPanic must never return")
}

func TestIsCancelRequested(t *testing.T) {
	assert.True(t, IsCancelRequested(ErrCancelled))
	assert.False(t, IsCancelRequested(nil))
	assert.False(t, IsCancelRequested("requested cancellation"), "a bare string is not the marker")
	assert.False(t, IsCancelRequested(assert.AnError))
}
