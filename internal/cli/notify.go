package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wedding-invitations/internal/handler"
	"wedding-invitations/internal/storage"
	"wedding-invitations/internal/whatsapp"
)

func newNotifyCmd(global *globalOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send imported invitees their links over WhatsApp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			logger := newLogger(cmd.ErrOrStderr(), global.verbose)

			settings, err := loadSettings(global)
			if err != nil {
				return err
			}
			journal, err := storage.NewStorage(journalPath(settings))
			if err != nil {
				return err
			}

			service, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: settings.DataDir}, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Connecting to WhatsApp...")
			if err := service.Connect(ctx, out); err != nil {
				return err
			}
			defer service.Disconnect()

			notifier := handler.NewNotifier(service, journal, &handler.Config{
				WeddingDate:     settings.WeddingDate,
				WeddingLocation: settings.WeddingLocation,
				BrideName:       settings.BrideName,
				GroomName:       settings.GroomName,
			}, logger)

			if email != "" {
				if err := notifier.Notify(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ Links sent to %s\n", email)
				return nil
			}

			sent, failed := notifier.NotifyPending(ctx)
			fmt.Fprintf(out, "✅ Sent %d, ❌ failed %d\n", sent, failed)
			return ctx.Err()
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Only notify the invitee with this email")
	return cmd
}
