package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect or remove library documents",
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a document and its metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Remove an ingested file from the library",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRemove,
}

// documentContent prints the full text after the metadata.
var documentContent bool

func init() {
	documentShowCmd.Flags().BoolVarP(&documentContent, "content", "c", false, "print the document text")

	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentReader == nil {
		return fmt.Errorf("documents: %w", errNotConfigured)
	}

	doc, err := documentReader.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:         %s\n", doc.Title)
	cmd.Printf("  Source:        %s\n", doc.Source)
	if doc.SourceURL != "" {
		cmd.Printf("  URL:           %s\n", doc.SourceURL)
	}
	if doc.Jurisdiction != "" {
		cmd.Printf("  Jurisdiction:  %s\n", doc.Jurisdiction)
	}
	if doc.PracticeArea != "" {
		cmd.Printf("  Practice area: %s\n", doc.PracticeArea)
	}
	if doc.DocumentType != "" {
		cmd.Printf("  Type:          %s\n", doc.DocumentType)
	}
	if doc.PublishedAt != nil {
		cmd.Printf("  Published:     %s\n", formatDate(doc.PublishedAt))
	}
	cmd.Printf("  Ingested:      %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		cmd.Println("\n  Metadata:")
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, doc.Metadata[k])
		}
	}

	if documentContent {
		cmd.Println()
		cmd.Println(doc.Content)
	}
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return fmt.Errorf("ingest: %w", errNotConfigured)
	}

	if err := ingestService.RemoveFile(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Removed %s from the library.\n", args[0])
	return nil
}
