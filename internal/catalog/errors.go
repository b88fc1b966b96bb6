package catalog

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is the closed set of error kinds surfaced across the RPC boundary
// (spec §7). Ok must stay zero so a fresh Status is success by default.
type Code int64

const (
	Ok Code = iota
	InvalidConflictType
	InvalidDataType
	InvalidConstraintType
	InvalidIndexType
	InvalidKnnDistanceType
	InvalidEmbeddingDataType
	InvalidConstantType
	InvalidParsedExprType
	InvalidParameterValue
	ImportFileFormatError
	SyntaxError
	EmptySelectFields
	InsertWithoutValues
	ColumnCountMismatch
	SessionNotFound
	NotSupport
	Unrecoverable
)

func (c Code) String() string {
	switch c {
	case Ok:
		return "Ok"
	case InvalidConflictType:
		return "InvalidConflictType"
	case InvalidDataType:
		return "InvalidDataType"
	case InvalidConstraintType:
		return "InvalidConstraintType"
	case InvalidIndexType:
		return "InvalidIndexType"
	case InvalidKnnDistanceType:
		return "InvalidKnnDistanceType"
	case InvalidEmbeddingDataType:
		return "InvalidEmbeddingDataType"
	case InvalidConstantType:
		return "InvalidConstantType"
	case InvalidParsedExprType:
		return "InvalidParsedExprType"
	case InvalidParameterValue:
		return "InvalidParameterValue"
	case ImportFileFormatError:
		return "ImportFileFormatError"
	case SyntaxError:
		return "SyntaxError"
	case EmptySelectFields:
		return "EmptySelectFields"
	case InsertWithoutValues:
		return "InsertWithoutValues"
	case ColumnCountMismatch:
		return "ColumnCountMismatch"
	case SessionNotFound:
		return "SessionNotFound"
	case NotSupport:
		return "NotSupport"
	case Unrecoverable:
		return "Unrecoverable"
	default:
		return fmt.Sprintf("Code(%d)", int64(c))
	}
}

// Status is the engine-wide result envelope: Ok code means success,
// anything else carries a message for the RPC response.
type Status struct {
	Code    Code
	Message string
}

func (s Status) Error() string {
	if s.Code == Ok {
		return ""
	}
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}

// OkStatus is the shared zero-value success status.
var OkStatus = Status{Code: Ok}

// NewStatus builds a non-ok status with a formatted message.
func NewStatus(code Code, format string, args ...interface{}) Status {
	return Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Unrecoverablef wraps an invariant violation as an error carrying the
// Unrecoverable code and a stack trace (spec §7). Callers receive it as
// an ordinary returned error; nothing in the process recovers from it,
// logs it specially or aborts on it. IsUnrecoverable detects it.
func Unrecoverablef(format string, args ...interface{}) error {
	return errors.WithStack(Status{Code: Unrecoverable, Message: fmt.Sprintf(format, args...)})
}

// IsUnrecoverable reports whether err (possibly wrapped) carries the
// Unrecoverable code.
func IsUnrecoverable(err error) bool {
	var st Status
	return errors.As(err, &st) && st.Code == Unrecoverable
}
