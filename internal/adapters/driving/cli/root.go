// Package cli implements the command-line interface using cobra.
// Commands are thin: they parse arguments, call the driving port
// services wired in by main, and format the result.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/corvid-labs/paperbase/internal/core/ports/driving"
	"github.com/corvid-labs/paperbase/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired in by main before Execute runs. Commands check for
// nil so a partially wired binary fails with a clear message instead
// of a panic.
var (
	libraryService driving.DocumentLibrary
	trainerService driving.Trainer
	searchService  driving.SearchService
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "paperbase",
	Short: "Index and search your PDF library",
	Long: `Paperbase keeps a local library of PDF documents, builds a semantic
index over their contents, and answers questions grounded in them.

Upload PDFs with 'add', rebuild the index with 'train', then query it
with 'search' or 'ask'.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// SetServices wires the driving port implementations into the CLI.
// Must be called before Execute.
func SetServices(
	library driving.DocumentLibrary,
	trainer driving.Trainer,
	search driving.SearchService,
) {
	libraryService = library
	trainerService = trainer
	searchService = search
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
