package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonathan/preflight/internal/checker"
	"github.com/jonathan/preflight/internal/observability"
	"github.com/jonathan/preflight/internal/types"
)

// errChecksFailed makes the command exit non-zero when content fails.
var errChecksFailed = errors.New("content failed checks")

var checkCmd = &cobra.Command{
	Use:   "check <document-id>",
	Short: "Check one document",
	Long:  "Runs every enabled check against a document and prints each result event, as JSON lines or as a text report. Exits non-zero when a check fails.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

var (
	checkCulture  string
	checkFromSave bool
	checkFormat   string
)

func init() {
	checkCmd.Flags().StringVar(&checkCulture, "culture", "default", "Culture to check")
	checkCmd.Flags().BoolVar(&checkFromSave, "from-save", false, "Run save-only checks too")
	checkCmd.Flags().StringVar(&checkFormat, "format", "json", "Output format: json or text")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}
	sink, err := eventSink(checkFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	return checkDocument(cmd.Context(), a, id, checkCulture, checkFromSave, sink)
}

// eventSink returns the sink that prints run events in format to w.
func eventSink(format string, w io.Writer) (checker.ResultSink, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		return checker.SinkFunc(func(event types.Event) error {
			return enc.Encode(event)
		}), nil
	case "text":
		return observability.NewPrinter(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json or text)", format)
	}
}

// checkDocument runs a full check and streams its events to sink.
func checkDocument(ctx context.Context, a *app, id int, culture string, fromSave bool, sink checker.ResultSink) error {
	result, err := a.checker.CheckDocument(ctx, id, culture, fromSave, sink)
	if err != nil {
		return err
	}
	if a.db != nil {
		recordCLIRun(ctx, a, id, culture, fromSave, result)
	}
	if result.Failed() {
		if msg := result.Message(); msg != "" {
			return fmt.Errorf("%w: %s", errChecksFailed, msg)
		}
		return errChecksFailed
	}
	return nil
}
