package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show retrieval provider health",
	Long: `Checks every enabled provider. A provider is online when its live API
answers, limited when only its curated fallback set is available, and
offline when it cannot serve results.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "output health as JSON")
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	if providerRegistry == nil {
		return fmt.Errorf("providers: %w", errNotConfigured)
	}

	health := providerRegistry.Health(cmd.Context())
	if providersJSON {
		data, err := json.MarshalIndent(health, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal health: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(health) == 0 {
		cmd.Println("No providers enabled.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	for _, h := range health {
		cmd.Printf("  %-14s %s", h.Provider, st.status(h.Status))
		if h.Message != "" {
			cmd.Print("  " + st.Muted.Render(h.Message))
		}
		cmd.Println()
	}
	return nil
}
