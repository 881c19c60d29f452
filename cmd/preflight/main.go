// Package main provides the preflight command line: the HTTP API server
// and one-shot check and settings commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	sitePath    string
	settingsDir string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "preflight",
	Short:         "Preflight content checks",
	Long:          "Preflight checks CMS content against per-culture settings using readability, banned words, alt text and link checks.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to JSON config file (optional)")
	rootCmd.PersistentFlags().StringVar(&sitePath, "site", "", "Path to the YAML site definition (overrides config)")
	rootCmd.PersistentFlags().StringVar(&settingsDir, "settings-dir", "", "Directory of per-culture settings files (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
