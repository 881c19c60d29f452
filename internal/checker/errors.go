package checker

import "fmt"

// PluginError wraps a failure raised by a check plugin while testing one
// field. It is logged by the runner and never aborts a run.
type PluginError struct {
	Plugin string
	Label  string
	Cause  error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s failed on %q: %v", e.Plugin, e.Label, e.Cause)
}

func (e *PluginError) Unwrap() error {
	return e.Cause
}
