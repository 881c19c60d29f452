package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/preflight/internal/settings"
	"github.com/jonathan/preflight/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import site documents and settings files into the database",
	Long:  "Copies every document of the site definition and every culture's settings file into Postgres. Requires DATABASE_URL.",
	RunE:  runImport,
}

var importSkipSettings bool

func init() {
	importCmd.Flags().BoolVar(&importSkipSettings, "skip-settings", false, "Import documents only")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		return fmt.Errorf("import requires DATABASE_URL")
	}

	return importSite(cmd.Context(), a, !importSkipSettings, cmd.OutOrStdout())
}

// importSite copies the site's documents, and optionally the settings
// files of its cultures, into the database.
func importSite(ctx context.Context, a *app, withSettings bool, w io.Writer) error {
	docs := a.site.Documents()
	for _, doc := range docs {
		if err := a.db.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to import document %d: %w", doc.ID, err)
		}
	}
	_, _ = fmt.Fprintf(w, "Imported %d documents\n", len(docs))

	if !withSettings {
		return nil
	}

	files, err := store.NewFileStore(a.cfg.SettingsDir, a.logger)
	if err != nil {
		return err
	}
	imported := 0
	for _, lang := range a.site.Languages() {
		stored, err := files.Load(ctx, lang.Culture)
		if errors.Is(err, settings.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := a.db.Save(ctx, lang.Culture, stored); err != nil {
			return fmt.Errorf("failed to import settings for %s: %w", lang.Culture, err)
		}
		imported++
	}
	_, _ = fmt.Fprintf(w, "Imported settings for %d cultures\n", imported)
	return nil
}
