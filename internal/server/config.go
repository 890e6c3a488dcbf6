package server

import "time"

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address.
	Addr string
	// MetricsPath serves Prometheus metrics. Empty disables it.
	MetricsPath string
	// ReadHeaderTimeout bounds slow clients.
	ReadHeaderTimeout time.Duration
	// RequestTimeout bounds each session round trip, including loads.
	RequestTimeout time.Duration
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the configuration used by `cinemad serve`.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		MetricsPath:       "/metrics",
		ReadHeaderTimeout: 10 * time.Second,
		RequestTimeout:    60 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}
