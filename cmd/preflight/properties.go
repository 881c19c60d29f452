package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/preflight/internal/types"
)

var propertiesCmd = &cobra.Command{
	Use:   "properties <culture> <content-type>",
	Short: "List the editor kinds tested for a content type",
	Args:  cobra.ExactArgs(2),
	RunE:  runProperties,
}

func init() {
	rootCmd.AddCommand(propertiesCmd)
}

func runProperties(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	return printProperties(cmd.Context(), a, args[0], args[1], cmd.OutOrStdout())
}

func printProperties(ctx context.Context, a *app, culture, contentType string, w io.Writer) error {
	kinds, ok, err := a.resolver.GetTestableFieldKinds(ctx, culture, contentType)
	if err != nil {
		return err
	}
	if !ok {
		_, _ = fmt.Fprintf(w, "%s is not tested in %s\n", contentType, culture)
		return nil
	}
	for _, k := range kinds {
		_, _ = fmt.Fprintln(w, k)
	}
	if len(kinds) == 0 {
		_, _ = fmt.Fprintf(w, "no editor kinds are tested (%s is empty)\n", types.SettingPropertiesToTest)
	}
	return nil
}
