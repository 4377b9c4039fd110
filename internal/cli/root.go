// Package cli wires the invitation importer commands.
package cli

import (
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wedding-invitations/internal/config"
)

const journalFile = "import_journal.json"

type globalOptions struct {
	dataDir string
	verbose bool
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:           "invitations",
		Short:         "Import wedding invitees into the reservation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Directory for the import journal and WhatsApp session (default $INVITES_DATA_DIR or data)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		newProcessInvitationsCmd(&opts),
		newNotifyCmd(&opts),
		newJournalCmd(&opts),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

// loadSettings reads settings from the environment, letting flags win
func loadSettings(opts *globalOptions) (config.Settings, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return config.Settings{}, err
	}
	if opts.dataDir != "" {
		settings.DataDir = opts.dataDir
	}
	return settings, nil
}

func journalPath(settings config.Settings) string {
	return filepath.Join(settings.DataDir, journalFile)
}
