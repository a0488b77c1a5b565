package wizard

import (
	"fmt"
	"strings"
)

// ErrorKind classifies user-facing failures.
type ErrorKind int

const (
	ErrGeneric ErrorKind = iota
	RequestsLoadFailed
	CategoriesLoadFailed
	FilesLoadFailed
	ExportFailed
)

func (k ErrorKind) String() string {
	switch k {
	case RequestsLoadFailed:
		return "requests load failed"
	case CategoriesLoadFailed:
		return "categories load failed"
	case FilesLoadFailed:
		return "files load failed"
	case ExportFailed:
		return "export failed"
	default:
		return "error"
	}
}

// Failure is the error shown to the user.
type Failure struct {
	Kind    ErrorKind
	Message string
}

func (f Failure) String() string {
	if f.Message == "" {
		return f.Kind.String()
	}
	return f.Kind.String() + ": " + f.Message
}

// InvariantViolation is raised when a transition leaves the model
// inconsistent. It is a programming defect, never a user-facing error.
type InvariantViolation struct {
	Msg        Msg
	Step       Step
	Violations []string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation after %T at step %s: %s",
		v.Msg, v.Step, strings.Join(v.Violations, "; "))
}
