// Package duration holds every timeout and delay used by policy-audit.
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ContextMedium)
//	cfg.Timeout = duration.HTTPAPI
//
// Timeout and Delay fields elsewhere must reference these constants; a test
// in this package rejects literals such as `15 * time.Second`.
package duration

import "time"

// ============================================================================
// HTTP CLIENT TIMEOUTS
// ============================================================================

const (
	// HTTPAPI bounds a single appliance REST call (15s)
	HTTPAPI = 15 * time.Second

	// HTTPMax is the largest timeout accepted from configuration (5min)
	HTTPMax = 5 * time.Minute

	// RetryDelay is the pause before retrying a throttled request (1s)
	RetryDelay = 1 * time.Second

	// RetryAfterMax caps a server-supplied Retry-After (30s)
	RetryAfterMax = 30 * time.Second
)

// ============================================================================
// CONTEXT/OPERATION TIMEOUTS
// ============================================================================

const (
	// ContextShort bounds telemetry setup and shutdown (10s)
	ContextShort = 10 * time.Second

	// ContextMedium bounds a complete audit run (5min)
	ContextMedium = 5 * time.Minute
)

// ============================================================================
// NETWORK/TRANSPORT
// ============================================================================

const (
	// DialTimeout is for establishing TCP connections (10s)
	DialTimeout = 10 * time.Second

	// KeepAlive is for TCP keep-alive interval (30s)
	KeepAlive = 30 * time.Second

	// IdleConnTimeout is for idle connection pool timeout (90s)
	IdleConnTimeout = 90 * time.Second

	// TLSHandshake is for TLS handshake timeout (10s)
	TLSHandshake = 10 * time.Second
)
