package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/types"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write per-culture settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <culture>",
	Short: "Print the resolved settings of a culture as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a settings set read from a JSON file",
	RunE:  runSettingsSave,
}

var (
	settingsFallback bool
	settingsInput    string
)

func init() {
	settingsGetCmd.Flags().BoolVar(&settingsFallback, "fallback", false, "Use a fallback culture when the culture has no settings")
	settingsSaveCmd.Flags().StringVarP(&settingsInput, "in", "i", "", "Path to settings set JSON file (required)")

	if err := settingsSaveCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	settingsCmd.AddCommand(settingsGetCmd, settingsSaveCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	return printSettings(cmd.Context(), a, args[0], settingsFallback, cmd.OutOrStdout())
}

// printSettings writes the resolved set of culture to w. A culture without
// settings prints the set carrying only its message.
func printSettings(ctx context.Context, a *app, culture string, fallback bool, w io.Writer) error {
	set, err := a.resolver.Resolve(ctx, culture, fallback)
	if err != nil && !errors.Is(err, settings.ErrNotFound) {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

func runSettingsSave(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := saveSettingsFile(cmd.Context(), a, settingsInput); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved settings from %s\n", settingsInput)
	return nil
}

// saveSettingsFile reads a settings set from path and persists it.
func saveSettingsFile(ctx context.Context, a *app, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var set types.SettingsSet
	if err := json.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("failed to unmarshal settings JSON: %w", err)
	}
	if set.Culture == "" {
		return fmt.Errorf("settings file %s has no culture", path)
	}

	if !a.resolver.Save(ctx, &set) {
		return fmt.Errorf("failed to save settings for %s", set.Culture)
	}
	return nil
}
