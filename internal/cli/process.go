package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"wedding-invitations/internal/backend"
	"wedding-invitations/internal/config"
	"wedding-invitations/internal/eraser"
	"wedding-invitations/internal/importer"
	"wedding-invitations/internal/storage"
)

type processOptions struct {
	environment string
	output      string
}

func newProcessInvitationsCmd(global *globalOptions) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process-invitations",
		Short: "Create guests and invitations from a CSV file and write their links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcessInvitations(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.environment, "environment", "local",
		fmt.Sprintf("Specify the environment: %s", strings.Join(config.Names(), " or ")))
	cmd.Flags().StringVar(&opts.output, "output", "", "Output CSV path (default $INVITES_OUTPUT or output_invitations.csv)")

	return cmd
}

func runProcessInvitations(cmd *cobra.Command, global *globalOptions, opts processOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	logger := newLogger(cmd.ErrOrStderr(), global.verbose)

	settings, err := loadSettings(global)
	if err != nil {
		return err
	}
	if opts.output != "" {
		settings.OutputPath = opts.output
	}

	cfg, err := config.Resolve(opts.environment)
	if err != nil {
		return err
	}
	logger.Info().Str("environment", cfg.Environment).Str("base_url", cfg.BaseURL).Msg("Environment selected")

	p := newPrompter(cmd.InOrStdin(), out)
	csvPath, err := p.Ask("Enter the path to the CSV file")
	if err != nil {
		return fmt.Errorf("read CSV path: %w", err)
	}
	erase, err := p.Confirm("Do you want to delete all existing data and start fresh?", false)
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}

	rows, err := importer.ReadFile(csvPath)
	if err != nil {
		return err
	}
	logger.Info().Int("rows", len(rows)).Str("path", csvPath).Msg("Input loaded")

	session, err := backend.NewClient(cfg.Endpoints.Auth, nil, logger).
		Authenticate(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		fmt.Fprintln(out, "Failed to authenticate as admin.")
		return err
	}

	journal, err := storage.NewStorage(journalPath(settings))
	if err != nil {
		return err
	}

	if erase {
		fmt.Fprintln(out, "Deleting primary invitations, secondary invitations and guests...")
		clean := true
		for _, r := range eraser.DeleteAll(ctx, session, cfg.Endpoints.EraseOrder(), logger) {
			fmt.Fprintf(out, "Deleted %d records from %s\n", r.Deleted, r.CollectionURL)
			if r.Err != nil || len(r.Failures) > 0 {
				clean = false
			}
		}
		if clean {
			if err := journal.Reset(); err != nil {
				logger.Warn().Err(err).Msg("Failed to reset import journal")
			}
			fmt.Fprintln(out, "All existing data deleted.")
		} else {
			fmt.Fprintln(out, "Some existing data could not be deleted.")
		}
	}

	results := importer.New(session, cfg, journal, logger).Import(ctx, rows)

	if err := importer.WriteFile(settings.OutputPath, results); err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d of %d invitees.\n", len(results), len(rows))
	fmt.Fprintf(out, "Output CSV generated at %s\n", settings.OutputPath)
	return ctx.Err()
}
