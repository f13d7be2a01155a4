package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Every error produced by the core wraps exactly one of
// these and can be tested with errors.Is.
var (
	// ErrControlFileFormat reports a structural control-file error. Always run-fatal.
	ErrControlFileFormat = errors.New("aq2rdb: control file format error")

	// ErrFieldValidation reports missing, incomplete or conflicting fields.
	ErrFieldValidation = errors.New("aq2rdb: field validation error")

	// ErrSubtype reports a stat/subtype code that is illegal for its datatype.
	ErrSubtype = errors.New("aq2rdb: invalid subtype")

	// ErrResource reports an I/O open failure. Always run-fatal.
	ErrResource = errors.New("aq2rdb: resource error")

	// ErrCollaborator reports a failure returned by an external service or formatter.
	ErrCollaborator = errors.New("aq2rdb: collaborator error")

	// ErrConfiguration reports an invalid combination of run options. Always run-fatal.
	ErrConfiguration = errors.New("aq2rdb: configuration error")
)

// Control-file structure errors.
var (
	ErrMissingHeader           = fmt.Errorf("%w: no column header line", ErrControlFileFormat)
	ErrMissingColumns          = fmt.Errorf("%w: missing required columns", ErrControlFileFormat)
	ErrMissingDefinitions      = fmt.Errorf("%w: no column definition line", ErrControlFileFormat)
	ErrDefinitionCountMismatch = fmt.Errorf("%w: column definition count mismatch", ErrControlFileFormat)
	ErrRowColumnCountMismatch  = fmt.Errorf("%w: row column count mismatch", ErrControlFileFormat)
	ErrReaderState             = fmt.Errorf("%w: reader used out of order", ErrControlFileFormat)
)

// Field validation errors.
var (
	ErrNeedsInteractiveCompletion = fmt.Errorf("%w: fields need interactive completion", ErrFieldValidation)
	ErrConflictingIdentifier      = fmt.Errorf("%w: descriptor id and parameter code cannot both be supplied", ErrFieldValidation)
	ErrIncompatibleFlags          = fmt.Errorf("%w: incompatible flag combination", ErrFieldValidation)
	ErrHydraRangeRequired         = fmt.Errorf("%w: hydra mode requires both begin and end", ErrFieldValidation)
	ErrHydraOutputRequired        = fmt.Errorf("%w: hydra mode requires an output destination", ErrFieldValidation)
	ErrIncompleteForStdout        = fmt.Errorf("%w: incomplete request for standard output", ErrFieldValidation)
	ErrIncompleteRow              = fmt.Errorf("%w: incomplete row (missing items)", ErrFieldValidation)
	ErrInvalidDatatype            = fmt.Errorf("%w: invalid datatype", ErrFieldValidation)
	ErrMalformedDateRange         = fmt.Errorf("%w: malformed date range", ErrFieldValidation)
	ErrDatatypeMismatch           = fmt.Errorf("%w: datatype differs from the first request", ErrFieldValidation)
	ErrMeasurementTypeMismatch    = fmt.Errorf("%w: measurement type differs from the first request", ErrFieldValidation)
	ErrNoPrimaryDD                = fmt.Errorf("%w: no primary descriptor", ErrFieldValidation)
	ErrInvalidSpec                = fmt.Errorf("%w: request fails canonical form", ErrFieldValidation)
)

// Resource, configuration and collaborator errors.
var (
	ErrOpenControlFile      = fmt.Errorf("%w: cannot open control file", ErrResource)
	ErrOpenOutput           = fmt.Errorf("%w: cannot open output file", ErrResource)
	ErrHydraPipeMissing     = fmt.Errorf("%w: hydra named pipe does not exist", ErrResource)
	ErrHydraPipeWrite       = fmt.Errorf("%w: cannot write hydra named pipe", ErrResource)
	ErrMultiFileWithoutPath = fmt.Errorf("%w: multi-file output requires an output path", ErrConfiguration)
	ErrPromptUnavailable    = fmt.Errorf("%w: interactive prompting is unavailable", ErrCollaborator)
	ErrStationNotFound      = fmt.Errorf("%w: station not found", ErrCollaborator)
	ErrNoFormatter          = fmt.Errorf("%w: no formatter bound to datatype", ErrConfiguration)
	ErrWatchWithoutFile     = fmt.Errorf("%w: watch requires a control file", ErrConfiguration)
)

// Lifecycle errors of long-running commands.
var (
	// ErrAlreadyRunning is returned when a running service is started again.
	ErrAlreadyRunning = errors.New("aq2rdb: already running")

	// ErrNotRunning is returned when a stopped service is stopped again.
	ErrNotRunning = errors.New("aq2rdb: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("aq2rdb: shutdown timeout")
)

// LineError attaches the originating control-file line to an error.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// AtLine wraps err with a control-file line number. Line zero (single
// requests) and nil errors are returned unchanged.
func AtLine(line int, err error) error {
	if err == nil || line <= 0 {
		return err
	}
	return &LineError{Line: line, Err: err}
}

// LineOf returns the control-file line carried by err, or zero.
func LineOf(err error) int {
	var le *LineError
	if errors.As(err, &le) {
		return le.Line
	}
	var se *SubtypeError
	if errors.As(err, &se) {
		return se.Line
	}
	return 0
}

// SubtypeError reports a stat/subtype code that is not legal for its datatype.
type SubtypeError struct {
	Datatype Datatype
	Value    string
	Line     int
}

func (e *SubtypeError) Error() string {
	msg := fmt.Sprintf("invalid %s subtype %q", e.Datatype, e.Value)
	if e.Line > 0 {
		msg += fmt.Sprintf(" on line %d", e.Line)
	}
	return msg
}

// Is makes SubtypeError match ErrSubtype.
func (e *SubtypeError) Is(target error) bool { return target == ErrSubtype }

// FieldsError names the fields behind a field validation failure.
type FieldsError struct {
	Err    error
	Fields []string
}

func (e *FieldsError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Fields, ", "))
}

func (e *FieldsError) Unwrap() error { return e.Err }

// MissingFields wraps kind with the names of the missing fields.
func MissingFields(kind error, fields ...string) error {
	return &FieldsError{Err: kind, Fields: fields}
}

// StatusError carries an explicit status returned by a collaborator.
type StatusError struct {
	Status Status
	Err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %v", int(e.Status), e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusOf maps err to the exit status reported for it. A nil error maps
// to StatusOK. Configuration errors without a code of their own map to
// StatusUsage and I/O open failures to StatusResource.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	switch {
	case errors.Is(err, ErrMultiFileWithoutPath):
		return StatusMultiFileWithoutPath
	case errors.Is(err, ErrConflictingIdentifier):
		return StatusConflictingIdentifier
	case errors.Is(err, ErrIncompleteForStdout):
		return StatusIncompleteForStdout
	case errors.Is(err, ErrIncompatibleFlags):
		return StatusIncompatibleFlags
	case errors.Is(err, ErrHydraRangeRequired):
		return StatusUsage
	case errors.Is(err, ErrHydraOutputRequired):
		return StatusHydraOutputRequired
	case errors.Is(err, ErrHydraPipeMissing):
		return StatusHydraPipeMissing
	case errors.Is(err, ErrHydraPipeWrite):
		return StatusHydraPipeWrite
	case errors.Is(err, ErrConfiguration):
		return StatusUsage
	case errors.Is(err, ErrResource):
		return StatusResource
	default:
		return StatusBadDateRange
	}
}
