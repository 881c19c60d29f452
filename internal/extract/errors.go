package extract

import (
	"fmt"

	"github.com/jonathan/preflight/internal/types"
)

// MalformedValueError reports a composite value that could not be parsed.
type MalformedValueError struct {
	Label  string
	Editor types.EditorKind
	Cause  error
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed %s value for %q: %v", e.Editor, e.Label, e.Cause)
}

func (e *MalformedValueError) Unwrap() error {
	return e.Cause
}
