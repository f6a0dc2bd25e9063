package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	httpapi "github.com/custodia-labs/lexground/internal/adapters/driving/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the retrieval API:

  POST /api/v1/retrieve          ranked sources, citations and prompt blocks
  POST /api/v1/answer            grounded answer streamed as server-sent events
  POST /api/v1/import            import a provider document
  GET  /api/v1/providers/health  provider availability
  GET  /health, /metrics

Citations are also returned base64-encoded in the X-Citations header.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	cfg := serverConfig
	cfg.Version = version
	if port > 0 {
		cfg.Port = port
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Retrieval: retrievalService,
		Answer:    answerService,
		Ingest:    ingestService,
		Providers: providerRegistry,
	}, cfg, httpapi.WithMetrics(serverMetrics))
	if err != nil {
		return err
	}

	if cfg.Port <= 0 {
		cfg.Port = httpapi.DefaultPort
	}
	fmt.Fprintf(cmd.OutOrStdout(), "API listening on http://localhost:%d\n", cfg.Port)
	return server.Run(cmd.Context())
}
