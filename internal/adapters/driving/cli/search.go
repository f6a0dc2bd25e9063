package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/textutil"
)

const snippetRunes = 240

// retrievalFlags are the limit and filter flags shared by search, ask and tui.
type retrievalFlags struct {
	limit        int
	jurisdiction string
	practiceArea string
	documentType string
}

func (f *retrievalFlags) register(fs *pflag.FlagSet) {
	fs.IntVarP(&f.limit, "limit", "n", domain.DefaultRetrievalLimit, "maximum number of sources")
	fs.StringVar(&f.jurisdiction, "jurisdiction", "", "only sources from this jurisdiction")
	fs.StringVar(&f.practiceArea, "practice-area", "", "only sources in this practice area")
	fs.StringVar(&f.documentType, "type", "", "only sources of this document type (case, statute, regulation)")
}

func (f *retrievalFlags) filters() domain.Filters {
	return domain.Filters{
		Jurisdiction: f.jurisdiction,
		PracticeArea: f.practiceArea,
		DocumentType: f.documentType,
	}
}

var (
	searchFlags retrievalFlags
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search legal sources",
	Long: `Searches the local library and every enabled provider, then ranks,
deduplicates and numbers the results as citations.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchFlags.register(searchCmd.Flags())
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the full retrieval response as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return fmt.Errorf("retrieval: %w", errNotConfigured)
	}

	resp, err := retrievalService.Retrieve(cmd.Context(), domain.RetrievalRequest{
		Query:   args[0],
		Limit:   searchFlags.limit,
		Filters: searchFlags.filters(),
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	outputSearchTable(cmd, resp)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.RetrievalResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.RetrievalResponse) {
	st := newStyles(cmd.OutOrStdout())

	if resp.Degraded {
		cmd.Println(st.Warning.Render("Embedding service unavailable: ranking is approximate."))
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	for i := range resp.Results {
		r := resp.Results[i]
		cmd.Println(st.source(citationFor(resp, r, i)))

		meta := []string{r.Source, string(r.SourceType), fmt.Sprintf("%.2f", r.Score)}
		cmd.Println("    " + st.Muted.Render(strings.Join(meta, " · ")))
		if snippet := strings.Join(strings.Fields(r.Content), " "); snippet != "" {
			cmd.Println("    " + textutil.TruncateRunes(snippet, snippetRunes, "..."))
		}
		if r.URL != "" {
			cmd.Println("    " + st.Muted.Render(r.URL))
		}
		cmd.Println()
	}
}

// citationFor returns the citation entry numbered for result i, or one
// built from the result when the response carries none.
func citationFor(resp *domain.RetrievalResponse, r domain.SearchResult, i int) domain.CitationEntry {
	if i < len(resp.Citations) && resp.Citations[i].ResultID == r.ID {
		return resp.Citations[i]
	}
	c := domain.CitationEntry{
		Number:   i + 1,
		ResultID: r.ID,
		Title:    r.Title,
		Citation: r.Citation,
		Court:    r.Court,
		Date:     r.Date,
	}
	if c.Title == "" {
		c.Title = r.ID
	}
	return c
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
