package normalize

import "errors"

// Sentinel errors for normalization failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrDataFormat indicates the appliance returned a value that violates
	// its own contract, such as a non-numeric byte counter. It aborts the run.
	ErrDataFormat = errors.New("normalize: data format violation")
)
