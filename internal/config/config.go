// Package config loads msgserve daemon configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"msgserve/pkg/server"
)

// Environment variables recognised by the daemon. Command-line flags take
// precedence over all of them.
const (
	EnvListenAddress  = "MSGSERVE_LISTEN"
	EnvReadBufferSize = "MSGSERVE_READ_BUFFER"
	EnvPollInterval   = "MSGSERVE_POLL_INTERVAL"
	EnvMetricsAddress = "MSGSERVE_METRICS_LISTEN"
	EnvTLS            = "MSGSERVE_TLS"
	EnvTLSCertFile    = "MSGSERVE_TLS_CERT"
	EnvTLSKeyFile     = "MSGSERVE_TLS_KEY"
)

// DefaultListenAddress is where the daemon serves framed requests unless
// configured otherwise.
const DefaultListenAddress = "0.0.0.0:26658"

// Config holds the daemon's runtime settings.
type Config struct {
	ListenAddress  string
	ReadBufferSize int
	PollInterval   time.Duration
	MetricsAddress string
	TLS            bool
	TLSCertFile    string
	TLSKeyFile     string
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset or unparsable.
func FromEnv() Config {
	return Config{
		ListenAddress:  envString(EnvListenAddress, DefaultListenAddress),
		ReadBufferSize: envInt(EnvReadBufferSize, server.DefaultReadBufferSize),
		PollInterval:   envDuration(EnvPollInterval, server.DefaultPollInterval),
		MetricsAddress: envString(EnvMetricsAddress, ""),
		TLS:            envBool(EnvTLS, false),
		TLSCertFile:    envString(EnvTLSCertFile, "cert.pem"),
		TLSKeyFile:     envString(EnvTLSKeyFile, "key.pem"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
