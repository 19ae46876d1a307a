package certgen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureKeyPair(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")

	require.NoError(t, EnsureKeyPair(certFile, keyFile))
	assert.FileExists(t, certFile)
	assert.FileExists(t, keyFile)

	// A second call must not regenerate the files.
	before, err := os.ReadFile(certFile)
	require.NoError(t, err)
	require.NoError(t, EnsureKeyPair(certFile, keyFile))
	after, err := os.ReadFile(certFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestServerTLSConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := ServerTLSConfig(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"))
	require.NoError(t, err)
	require.Len(t, cfg.Certificates, 1)
}
