// Package observability provides formatted output of check runs for the
// command line.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/preflight/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer renders run events as boxes. It implements checker.ResultSink.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func status(failed bool) string {
	if failed {
		return "FAIL"
	}
	return "PASS"
}

// Emit prints one event.
func (p *Printer) Emit(event types.Event) error {
	switch event.Kind {
	case types.EventFieldResult:
		p.PrintFieldResult(event.Result)
	case types.EventRemove:
		p.PrintRemoved(event.Label)
	case types.EventComplete:
		p.PrintComplete(event)
	}
	return nil
}

// PrintFieldResult outputs a field's aggregate status and the outcome of
// each plugin that tested it.
func (p *Printer) PrintFieldResult(result *types.FieldResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s\n", status(result.Failed)))
	sb.WriteString(fmt.Sprintf("Failures: %d of %d tests\n", result.FailedCount, result.TotalTests))

	if len(result.Plugins) > 0 {
		sb.WriteString("\n")
		count := min(len(result.Plugins), maxItemsToShow)
		for i := 0; i < count; i++ {
			outcome := result.Plugins[i]
			mark := "✓"
			if outcome.Failed {
				mark = "✗"
			}
			sb.WriteString(fmt.Sprintf("%s %s (%d/%d)\n", mark, outcome.Name, outcome.FailedCount, outcome.TotalTests))
		}
		if len(result.Plugins) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more checks\n", len(result.Plugins)-maxItemsToShow))
		}
	}

	p.printBox("FIELD: "+result.Label, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRemoved notes a field that has nothing to test.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRemoved(label string) {
	fmt.Fprintf(p.out, "- %s: nothing to test\n", label)
}

// PrintComplete outputs the summary of a finished run.
func (p *Printer) PrintComplete(event types.Event) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document: %d\n", event.DocID))
	sb.WriteString(fmt.Sprintf("Culture:  %s\n", event.Culture))
	sb.WriteString(fmt.Sprintf("Status:   %s", status(event.Failed)))
	if event.Message != "" {
		sb.WriteString(fmt.Sprintf("\n\n%s", event.Message))
	}

	p.printBox("RUN COMPLETE "+event.RunID, sb.String())
}
