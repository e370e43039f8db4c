package graph

import "fmt"

// ErrorCode is the stable wire-compatible status taxonomy of the
// runtime reconfiguration core. Values are fixed; do not renumber.
type ErrorCode int32

const (
	Success ErrorCode = 0

	OpenJSONFileFail    ErrorCode = 1
	OpenPlanFileFail    ErrorCode = 2
	OpenOutputFileFail  ErrorCode = 3
	OpenJSONStreamFail  ErrorCode = 4
	P4ObjectsInitFail   ErrorCode = 5
	PrefixError         ErrorCode = 6
	DupCheckError       ErrorCode = 7
	UnfoundIDError      ErrorCode = 8
	InvalidCommandError ErrorCode = 9
)

func (c ErrorCode) String() string {
	switch c {
	case Success:
		return "SUCCESS"
	case OpenJSONFileFail:
		return "OPEN_JSON_FILE_FAIL"
	case OpenPlanFileFail:
		return "OPEN_PLAN_FILE_FAIL"
	case OpenOutputFileFail:
		return "OPEN_OUTPUT_FILE_FAIL"
	case OpenJSONStreamFail:
		return "OPEN_JSON_STREAM_FAIL"
	case P4ObjectsInitFail:
		return "P4OBJECTS_INIT_FAIL"
	case PrefixError:
		return "PREFIX_ERROR"
	case DupCheckError:
		return "DUP_CHECK_ERROR"
	case UnfoundIDError:
		return "UNFOUND_ID_ERROR"
	case InvalidCommandError:
		return "INVALID_COMMAND_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN_ERROR_CODE(%d)", int32(c))
	}
}

// ReconfigError pairs a stable ErrorCode with human-readable context.
// Every mutation primitive returns one of these (or nil) instead of a
// raw error, so the fixed taxonomy survives across the PI façade, the
// plan interpreter, and the batch entry point unchanged.
type ReconfigError struct {
	Code   ErrorCode
	Detail string
}

func NewError(code ErrorCode, format string, args ...any) *ReconfigError {
	if code == Success {
		return nil
	}
	return &ReconfigError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (e *ReconfigError) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is lets errors.Is match two *ReconfigError values that carry the same
// code, whatever their details. A target that is not a *ReconfigError
// (a bare ErrorCode included) never matches.
func (e *ReconfigError) Is(target error) bool {
	other, ok := target.(*ReconfigError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the ErrorCode carried by err, or Success if err is nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	if rerr, ok := err.(*ReconfigError); ok {
		if rerr == nil {
			return Success
		}
		return rerr.Code
	}
	return InvalidCommandError
}
