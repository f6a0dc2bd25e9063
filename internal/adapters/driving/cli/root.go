// Package cli provides the lexground command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	httpapi "github.com/custodia-labs/lexground/internal/adapters/driving/http"
	"github.com/custodia-labs/lexground/internal/adapters/driving/mcp"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
	"github.com/custodia-labs/lexground/internal/metrics"
)

var version = "dev"

var verbose bool

// Services injected by main before Execute.
var (
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	ingestService    driving.IngestService
	providerRegistry driving.ProviderRegistry
	settingsService  driving.SettingsService
	documentReader   mcp.DocumentReader
	serverMetrics    *metrics.Metrics
	serverConfig     httpapi.Config
)

var errNotConfigured = errors.New("service not configured")

// Services groups the dependencies the commands drive.
type Services struct {
	Retrieval driving.RetrievalService
	Answer    driving.AnswerService
	Ingest    driving.IngestService
	Providers driving.ProviderRegistry
	Settings  driving.SettingsService
	Documents mcp.DocumentReader
	Metrics   *metrics.Metrics
	Server    httpapi.Config
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	retrievalService = s.Retrieval
	answerService = s.Answer
	ingestService = s.Ingest
	providerRegistry = s.Providers
	settingsService = s.Settings
	documentReader = s.Documents
	serverMetrics = s.Metrics
	serverConfig = s.Server
}

// SetVersion sets the version reported by the version command and /health.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "lexground",
	Short: "Grounded legal research retrieval",
	Long: `lexground retrieves legal sources from a local document library and
live providers (case law, statutes and regulations, web), ranks them and
builds numbered citations that ground language model answers.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
