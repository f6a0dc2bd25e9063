package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexground/internal/adapters/driving/watcher"
	"github.com/custodia-labs/lexground/internal/core/domain"
)

var (
	ingestWatch        bool
	ingestSource       string
	ingestJurisdiction string
	ingestPracticeArea string
	ingestDocumentType string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Ingest local documents into the library",
	Long: `Chunks, embeds and stores text, markdown, HTML and DOCX files.
Directories are walked recursively; hidden files are skipped. Re-ingesting
a file replaces its previous chunks.

With --watch, the directories stay watched and changed files are
re-ingested until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var importCmd = &cobra.Command{
	Use:   "import [provider] [id]",
	Short: "Import a provider document into the library",
	Long: `Fetches a document from a live provider (courtlistener, govinfo,
websearch) and ingests it so it is searchable offline.`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching directories for changes")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source label shown in citations")
	ingestCmd.Flags().StringVar(&ingestJurisdiction, "jurisdiction", "", "jurisdiction of the documents")
	ingestCmd.Flags().StringVar(&ingestPracticeArea, "practice-area", "", "practice area of the documents")
	ingestCmd.Flags().StringVar(&ingestDocumentType, "type", "", "document type (memo, brief, case, statute)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(importCmd)
}

func ingestMeta() domain.Document {
	return domain.Document{
		Source:       ingestSource,
		Jurisdiction: ingestJurisdiction,
		PracticeArea: ingestPracticeArea,
		DocumentType: ingestDocumentType,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return fmt.Errorf("ingest: %w", errNotConfigured)
	}
	ctx := cmd.Context()
	st := newStyles(cmd.OutOrStdout())
	meta := ingestMeta()

	var files, chunks, failed int
	for _, root := range args {
		paths, err := watcher.Files(root)
		if err != nil {
			return err
		}
		for _, path := range paths {
			res, err := ingestService.IngestFile(ctx, path, meta)
			switch {
			case errors.Is(err, domain.ErrUnsupportedFormat):
				continue
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed++
				cmd.PrintErrln(st.Error.Render(fmt.Sprintf("  %s: %v", path, err)))
				continue
			}
			files++
			chunks += res.Chunks
			line := fmt.Sprintf("  %s (%d chunks)", path, res.Chunks)
			if res.Degraded > 0 {
				line += st.Warning.Render(fmt.Sprintf(" %d without embeddings", res.Degraded))
			}
			cmd.Println(line)
		}
	}

	cmd.Printf("Ingested %d files, %d chunks", files, chunks)
	if failed > 0 {
		cmd.Printf(", %d failed", failed)
	}
	cmd.Println()

	if !ingestWatch {
		return nil
	}
	return watch(cmd, args, meta)
}

func watch(cmd *cobra.Command, roots []string, meta domain.Document) error {
	w, err := watcher.New(ingestService, watcher.Config{Meta: meta})
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		if !info.IsDir() {
			continue
		}
		if err := w.Add(root); err != nil {
			return err
		}
	}

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")
	return w.Run(cmd.Context())
}

func runImport(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return fmt.Errorf("import: %w", errNotConfigured)
	}

	res, err := ingestService.Import(cmd.Context(), args[0], args[1])
	if errors.Is(err, domain.ErrProviderNotFound) && providerRegistry != nil {
		return fmt.Errorf("%w (available: %v)", err, providerRegistry.Names())
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %s/%s as document %s (%d chunks)\n", args[0], args[1], res.DocumentID, res.Chunks)
	return nil
}
