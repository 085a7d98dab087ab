package forms

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError is one failed rule. Path uses the form field names, e.g. "members.1.mobile".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationErrors is returned by Schema.Validate. Order follows the form layout.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Path+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ByPath indexes messages for template lookup. The first message per path wins.
func (v ValidationErrors) ByPath() map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		if _, ok := out[fe.Path]; !ok {
			out[fe.Path] = fe.Message
		}
	}
	return out
}

// Has reports whether any error is attached to path.
func (v ValidationErrors) Has(path string) bool {
	for _, fe := range v {
		if fe.Path == path {
			return true
		}
	}
	return false
}

// PreconditionError marks misuse of the form model by calling code, such as a
// schema with min > max or removing the team leader. It is a defect, not user input.
type PreconditionError struct {
	Op      string
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func precondition(op, format string, args ...any) error {
	return &PreconditionError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// ErrTeamFull is returned by Draft.AddMember when the roster is at its maximum.
var ErrTeamFull = errors.New("team is already at maximum size")

// IsPrecondition reports whether err is (or wraps) a *PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
