package checker

import "github.com/jonathan/preflight/internal/types"

// DisabledMessage is reported when every test is switched off for a culture.
const DisabledMessage = "Preflight is currently disabled - enable it in Settings"

// RunResult is the synchronous summary of a check run. It is either
// Completed or ConfigMissing.
type RunResult interface {
	// Failed reports whether the run failed. A run without configuration
	// always fails.
	Failed() bool
	// Message is non-empty only when the run could not check anything.
	Message() string
	ID() string

	sealed()
}

// Completed is a run that checked the document.
type Completed struct {
	RunID     string
	AnyFailed bool
	Fields    []types.FieldResult
}

func (c Completed) Failed() bool    { return c.AnyFailed }
func (c Completed) Message() string { return "" }
func (c Completed) ID() string      { return c.RunID }
func (Completed) sealed()           {}

// ConfigMissing is a run aborted because no usable settings exist.
type ConfigMissing struct {
	RunID  string
	Reason string
}

func (c ConfigMissing) Failed() bool    { return true }
func (c ConfigMissing) Message() string { return c.Reason }
func (c ConfigMissing) ID() string      { return c.RunID }
func (ConfigMissing) sealed()           {}
