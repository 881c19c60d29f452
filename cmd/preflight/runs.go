package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/checker"
	"github.com/jonathan/preflight/internal/db"
)

var runsCmd = &cobra.Command{
	Use:   "runs <document-id>",
	Short: "List recent check runs of a document",
	Long:  "Lists the check run history recorded in the database, newest first. Requires DATABASE_URL.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuns,
}

var runsLimit int

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		return fmt.Errorf("run history requires DATABASE_URL")
	}

	runs, err := a.db.ListRuns(cmd.Context(), id, runsLimit)
	if err != nil {
		return err
	}
	return printRuns(cmd.OutOrStdout(), runs)
}

func printRuns(w io.Writer, runs []db.CheckRun) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tCULTURE\tMODE\tSAVE\tFAILED\tCREATED\tMESSAGE")
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%s\t%s\n",
			r.ID, r.Culture, r.Mode, r.FromSave, r.Failed, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Message)
	}
	return tw.Flush()
}

// recordCLIRun stores the outcome of a command line check.
func recordCLIRun(ctx context.Context, a *app, docID int, culture string, fromSave bool, result checker.RunResult) {
	runID, err := uuid.Parse(result.ID())
	if err != nil {
		runID = uuid.New()
	}
	run := db.CheckRun{
		ID:         runID,
		DocumentID: docID,
		Culture:    a.resolver.NormalizeCulture(culture),
		Mode:       db.ModeFull,
		FromSave:   fromSave,
		Failed:     result.Failed(),
		Message:    result.Message(),
	}
	if err := a.db.RecordRun(ctx, run); err != nil {
		a.logger.Warn("failed to record check run", zap.String("run_id", runID.String()), zap.Error(err))
	}
}
