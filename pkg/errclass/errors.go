package errclass

import "fmt"

// VolError is a stable, machine-readable error class. The Error() text is
// what gets persisted in a volume's error marker, so codes must stay stable
// across releases.
type VolError struct {
	Code    string
	Message string
}

func (e *VolError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *VolError) Is(target error) bool {
	t, ok := target.(*VolError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new VolError with the same Code but a specific message.
func (e *VolError) WithMessage(msg string) *VolError {
	return &VolError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new VolError with a formatted message.
func (e *VolError) WithMessagef(format string, args ...any) *VolError {
	return &VolError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	ErrUnknownLevel    = &VolError{Code: "E_UNKNOWN_LEVEL"}
	ErrNameInvalid     = &VolError{Code: "E_NAME_INVALID"}
	ErrMountTable      = &VolError{Code: "E_MOUNT_TABLE"}
	ErrNestedMount     = &VolError{Code: "E_NESTED_MOUNT"}
	ErrReadOnly        = &VolError{Code: "E_READ_ONLY"}
	ErrPriorError      = &VolError{Code: "E_PRIOR_ERROR"}
	ErrWorkdirConflict = &VolError{Code: "E_WORKDIR_CONFLICT"}
	ErrSubvolCreate    = &VolError{Code: "E_SUBVOL_CREATE"}
	ErrWorkdirCreate   = &VolError{Code: "E_WORKDIR_CREATE"}
	ErrReflinkCopy     = &VolError{Code: "E_REFLINK_COPY"}
	ErrRootCleanup     = &VolError{Code: "E_ROOT_CLEANUP"}
	ErrMove            = &VolError{Code: "E_MOVE"}
	ErrMarkerWrite     = &VolError{Code: "E_MARKER_WRITE"}
)
