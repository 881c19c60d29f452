package types

// TestableField is one extracted unit of work.
// An empty Value marks a field that has nothing to test and must be
// retracted from the result set instead of being checked.
type TestableField struct {
	Name         string     `json:"name"`
	Label        string     `json:"label"`
	Value        string     `json:"value"`
	Editor       EditorKind `json:"editor"`
	ParentEditor EditorKind `json:"parentEditor,omitempty"`
}

// IsEmpty reports whether the field is a zero-value marker.
func (f TestableField) IsEmpty() bool {
	return f.Value == ""
}

// CheckOutcome is one plugin's result against one field.
type CheckOutcome struct {
	Plugin      string `json:"plugin"`
	Name        string `json:"name"`
	Failed      bool   `json:"failed"`
	FailedCount int    `json:"failedCount"`
	SortOrder   int    `json:"sortOrder"`
	TotalTests  int    `json:"totalTests"`
	Result      any    `json:"result,omitempty"`
}

// Normalize enforces the failure count invariants: never negative, zero
// unless the outcome failed, and at least one when it did.
func (o *CheckOutcome) Normalize() {
	if o.FailedCount < 0 || !o.Failed {
		o.FailedCount = 0
	}
	if o.Failed && o.FailedCount == 0 {
		o.FailedCount = 1
	}
}

// FieldResult aggregates all outcomes for one field.
type FieldResult struct {
	Name        string         `json:"name"`
	Label       string         `json:"label"`
	Culture     string         `json:"culture,omitempty"`
	Failed      bool           `json:"failed"`
	FailedCount int            `json:"failedCount"`
	TotalTests  int            `json:"totalTests"`
	Plugins     []CheckOutcome `json:"plugins"`
	Remove      bool           `json:"remove,omitempty"`
}

// EventKind discriminates result stream events.
type EventKind string

// Result stream event kinds.
const (
	EventFieldResult EventKind = "fieldResult"
	EventRemove      EventKind = "remove"
	EventComplete    EventKind = "complete"
)

// Event is one message on the result stream. Every event carries the run
// and culture it belongs to so receivers can discard stale runs.
type Event struct {
	Kind    EventKind    `json:"kind"`
	RunID   string       `json:"runId,omitempty"`
	DocID   int          `json:"docId,omitempty"`
	Culture string       `json:"culture,omitempty"`
	Name    string       `json:"name,omitempty"`
	Label   string       `json:"label,omitempty"`
	Result  *FieldResult `json:"result,omitempty"`
	Message string       `json:"message,omitempty"`
	Failed  bool         `json:"failed,omitempty"`
}
