package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
)

var askFlags retrievalFlags

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a legal question with cited sources",
	Long: `Retrieves sources for the question, streams an answer from the
configured language model that cites them as [Source N], then lists the
numbered sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askFlags.register(askCmd.Flags())
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return fmt.Errorf("answer: %w", errNotConfigured)
	}

	out := cmd.OutOrStdout()
	answer, err := answerService.Answer(cmd.Context(), args[0], nil, driving.AnswerOptions{
		Limit:   askFlags.limit,
		Filters: askFlags.filters(),
	}, func(token string) {
		io.WriteString(out, token) //nolint:errcheck
	})
	if errors.Is(err, domain.ErrLLMUnavailable) {
		return fmt.Errorf("%w: configure one with 'lexground settings llm'", err)
	}
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	cmd.Println()
	st := newStyles(out)
	if answer.Degraded {
		cmd.Println(st.Warning.Render("Embedding service unavailable: sources were ranked approximately."))
	}
	if len(answer.Citations) == 0 {
		cmd.Println(st.Muted.Render("No sources were found; this answer is not grounded."))
		return nil
	}

	cmd.Println()
	cmd.Println(st.Title.Render("Sources"))
	for _, c := range answer.Citations {
		cmd.Println(st.source(c))
		if c.URL != "" {
			cmd.Println("    " + st.Muted.Render(c.URL))
		}
	}
	return nil
}
