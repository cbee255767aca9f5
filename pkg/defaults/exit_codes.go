package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Audit completed and all artifacts were written
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitNetworkError  = 3 // Transport, TLS or HTTP status failure
	ExitInternalError = 4 // Data-format violation or unexpected failure
)
