package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/output"
	"github.com/healthnav/healthnav/internal/report"
)

// newIndexCmd creates the index command.
func newIndexCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "index <file> [file...]",
		Short: "Build a vector index from a document's text",
		Long: `Index reads plain-text documents, splits them into overlapping
word windows, embeds every chunk, and writes one index per document to
the storage directory. Re-indexing an id fully replaces its index.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args, id)
		},
	}

	cmd.Flags().StringVar(&id, "id", "",
		"Document id (single file only; defaults to the file name without extension)")

	return cmd
}

func runIndex(cmd *cobra.Command, files []string, id string) error {
	out := output.New(cmd.OutOrStdout())

	if id != "" && len(files) > 1 {
		return fmt.Errorf("--id can only be used with a single file")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	repo := report.NewMemoryRepository()

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		docID := id
		if docID == "" {
			docID = documentIDFromPath(file)
		}
		filename := filepath.Base(file)
		metadata := map[string]string{"filename": filename}

		if err := repo.Put(report.Report{
			ID:         docID,
			Filename:   filename,
			Text:       string(data),
			Size:       int64(len(data)),
			Metadata:   metadata,
			UploadedAt: time.Now(),
		}); err != nil {
			return err
		}

		if err := repo.UpdateStatus(docID, report.StatusProcessing); err != nil {
			return err
		}
		if err := a.manager.BuildIndex(cmd.Context(), docID, string(data), metadata); err != nil {
			_ = repo.UpdateStatus(docID, report.StatusError)
			return fmt.Errorf("failed to index %s: %w", file, err)
		}
		if err := repo.UpdateStatus(docID, report.StatusIndexed); err != nil {
			return err
		}

		out.Successf("Indexed %s as %s", filename, docID)
	}

	reports, err := repo.List()
	if err != nil {
		return err
	}
	if len(reports) > 1 {
		out.Newline()
		out.Statusf("📚", "%d documents indexed into %s", len(reports), a.cfg.Storage.Dir)
	}

	return nil
}

// documentIDFromPath derives a document id from a file path, e.g.
// "reports/cbc panel.txt" -> "cbc-panel".
func documentIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, " ", "-")
	return base
}
