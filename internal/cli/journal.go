package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"wedding-invitations/internal/models"
	"wedding-invitations/internal/storage"
)

func newJournalCmd(global *globalOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List imported invitees and the delivery status of their links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(global)
			if err != nil {
				return err
			}
			journal, err := storage.NewStorage(journalPath(settings))
			if err != nil {
				return err
			}

			var entries []models.JournalEntry
			switch models.NotifyStatus(status) {
			case "":
				entries = journal.AllEntries()
			case models.NotifyPending, models.NotifySent, models.NotifyFailed:
				entries = journal.EntriesByStatus(models.NotifyStatus(status))
			default:
				return fmt.Errorf("invalid status %q (use pending, sent or failed)", status)
			}

			printEntries(cmd, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show entries with this status: pending, sent or failed")
	return cmd
}

func printEntries(cmd *cobra.Command, entries []models.JournalEntry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries found.")
		return
	}

	fmt.Fprintf(out, "📋 Journal (%d total):\n", len(entries))
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, e := range entries {
		fmt.Fprintf(out, "Name: %s\n", e.Name)
		fmt.Fprintf(out, "Email: %s\n", e.Email)
		fmt.Fprintf(out, "Phone: %s\n", e.Phone)
		fmt.Fprintf(out, "Main link: %s\n", e.MainLink)

		idx := make([]int, 0, len(e.PlusOneLinks))
		for i := range e.PlusOneLinks {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		for _, i := range idx {
			fmt.Fprintf(out, "Plus-one %d: %s\n", i, e.PlusOneLinks[i])
		}

		fmt.Fprintf(out, "Status: %s\n", e.NotifyStatus)
		if e.NotifiedAt != nil {
			fmt.Fprintf(out, "Notified: %s\n", e.NotifiedAt.Format("2006-01-02 15:04:05"))
		}
		if e.Notes != "" {
			fmt.Fprintf(out, "Notes: %s\n", e.Notes)
		}
		fmt.Fprintln(out, strings.Repeat("-", 60))
	}
}
