// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for runtime configuration defaults.
//
// Usage:
//
//	cfg.VDOM = defaults.VDOM
//	req.Header.Set("Accept", defaults.AcceptJSON)
//
// DO NOT hardcode values like `"root"` or `"N/A"` anywhere else.
// Reference the appropriate constant from this package instead.
package defaults

// Version is the current policy-audit version
const Version = "1.2.0"

// ToolName is used for service names, user agents and report footers.
const ToolName = "policy-audit"

// ============================================================================
// RECORD VALUES
// ============================================================================
//
// Absent values are modelled as optionals internally and only rendered as
// the sentinel at serialization boundaries (CSV, tables, PDF, XLSX).
// ============================================================================

const (
	// Unknown is the sentinel rendered for absent, null or unparseable fields.
	Unknown = "N/A"

	// Wildcard is the address/service token that matches everything.
	Wildcard = "all"

	// ImplicitPolicyID is the reserved id of the implicit/system default rule.
	ImplicitPolicyID = 0
)

// ============================================================================
// APPLIANCE SETTINGS
// ============================================================================

const (
	// VDOM is the virtual domain queried when none is configured.
	VDOM = "root"

	// TimeZone is the zone used to render first/last used timestamps.
	TimeZone = "Europe/Madrid"

	// VerifyTLS is the default certificate verification setting.
	VerifyTLS = true

	// EnvFile is the configuration file read when -config is not given.
	EnvFile = ".env"
)

// ============================================================================
// OUTPUT ARTIFACTS
// ============================================================================

const (
	OutMonitorCSV = "output_monitor.csv"
	OutCMDBCSV    = "output_cmdb.csv"
	OutMergedCSV  = "pre_final.csv"
	OutPDF        = "policy_audit_report.pdf"

	// ReportTitle is the heading of the generated PDF report.
	ReportTitle = "FortiGate Firewall Policy Audit Report"

	// ReportFooter is printed at the bottom of every PDF page.
	ReportFooter = "FortiGate Policy Audit Report"
)

// ============================================================================
// HTTP HEADERS
// ============================================================================

const (
	// AcceptJSON for JSON API requests
	AcceptJSON = "application/json"

	// ContentTypeJSON for JSON bodies
	ContentTypeJSON = "application/json"

	// UAMinimal identifies the tool to the appliance
	UAMinimal = ToolName + "/" + Version
)

// ============================================================================
// BUFFER SIZES
// ============================================================================

const (
	// BufferSmall is for error body excerpts (4KB)
	BufferSmall = 4 * 1024

	// BufferMax bounds a single API response (64MB). Large appliances
	// return tens of thousands of policies in one document.
	BufferMax = 64 * 1024 * 1024

	// ErrorExcerpt is how much of a failed response body is quoted in errors.
	ErrorExcerpt = 300
)
