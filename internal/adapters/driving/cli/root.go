// Package cli is the sercha-rag command line. Commands are thin wrappers
// over the driving ports, which are injected with Configure before Execute.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services wired by main.
var (
	ingestService    driving.IngestService
	searchService    driving.SearchService
	documentService  driving.DocumentService
	settingsService  driving.SettingsService
	contextAssembler driving.ContextAssembler
	folderSync       driving.FolderSync
)

// Services groups the driving ports the commands call.
type Services struct {
	Ingest   driving.IngestService
	Search   driving.SearchService
	Document driving.DocumentService
	Settings driving.SettingsService
	Context  driving.ContextAssembler
	Folder   driving.FolderSync
}

var rootCmd = &cobra.Command{
	Use:   "sercha-rag",
	Short: "Document retrieval for conversations",
	Long: `sercha-rag ingests documents into scopes, indexes their chunks as
vectors and retrieves the most relevant passages for a query or a
conversation.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Configure injects the services used by the commands.
func Configure(s Services) {
	ingestService = s.Ingest
	searchService = s.Search
	documentService = s.Document
	settingsService = s.Settings
	contextAssembler = s.Context
	folderSync = s.Folder
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
