package domain

import "strconv"

// Status is a per-request or per-run status code, also used as the
// process exit status.
type Status int

const (
	StatusOK          Status = 0
	StatusProvisional Status = 1 // some rows are provisional or non-final
	StatusNoData      Status = 2 // no request produced data
	// StatusBadDateRange reports a malformed date range. It is also the
	// status of run-fatal field and collaborator failures that carry no
	// more specific code.
	StatusBadDateRange Status = 3

	StatusUsage                 Status = 119
	StatusIncompatibleFlags     Status = 120
	StatusHydraOutputRequired   Status = 121
	StatusMultiFileWithoutPath  Status = 122
	StatusConflictingIdentifier Status = 123
	StatusIncompleteForStdout   Status = 124
	StatusHydraPipeMissing      Status = 125
	StatusHydraPipeWrite        Status = 126

	// StatusResource reports that the control file or an output file
	// could not be opened.
	StatusResource Status = 127
)

// String returns a short label for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusProvisional:
		return "provisional"
	case StatusNoData:
		return "no-data"
	case StatusBadDateRange:
		return "bad-date-range"
	case StatusUsage:
		return "usage"
	case StatusIncompatibleFlags:
		return "incompatible-flags"
	case StatusHydraOutputRequired:
		return "hydra-output-required"
	case StatusMultiFileWithoutPath:
		return "multi-file-without-path"
	case StatusConflictingIdentifier:
		return "conflicting-identifier"
	case StatusIncompleteForStdout:
		return "incomplete-for-stdout"
	case StatusHydraPipeMissing:
		return "hydra-pipe-missing"
	case StatusHydraPipeWrite:
		return "hydra-pipe-write"
	case StatusResource:
		return "resource"
	default:
		return "status-" + strconv.Itoa(int(s))
	}
}

// Usage reports whether s is a usage-level status owned by the CLI layer.
func (s Status) Usage() bool {
	return s >= StatusUsage && s <= StatusHydraPipeWrite
}
