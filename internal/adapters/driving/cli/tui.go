package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexground/internal/adapters/driving/tui"
)

var tuiFlags retrievalFlags

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive research session",
	Long: `Opens a terminal interface to search sources, read them in full and
stream grounded answers. Filters given here apply to every search.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiFlags.register(tuiCmd.Flags())
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	app, err := tui.NewApp(&tui.Ports{
		Retrieval: retrievalService,
		Answer:    answerService,
	})
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	ctx := cmd.Context()
	err = app.WithContext(ctx).WithFilters(tuiFlags.filters(), tuiFlags.limit).Run()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
