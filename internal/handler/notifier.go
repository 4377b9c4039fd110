package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"wedding-invitations/internal/models"
	"wedding-invitations/internal/storage"
)

// ErrNoPhone is returned when an entry has no phone number to deliver to
var ErrNoPhone = errors.New("entry has no phone number")

// Sender delivers a text message to a phone number
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

type Config struct {
	WeddingDate     string
	WeddingLocation string
	BrideName       string
	GroomName       string
}

// Notifier sends each imported guest their invitation links
type Notifier struct {
	sender  Sender
	storage *storage.Storage
	config  *Config
	log     zerolog.Logger
}

// NewNotifier creates a new notifier
func NewNotifier(sender Sender, storage *storage.Storage, cfg *Config, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		storage: storage,
		config:  cfg,
		log:     logger.With().Str("component", "Notifier").Logger(),
	}
}

// NotifyPending delivers links to every entry still pending and returns how
// many were sent and how many failed.
func (n *Notifier) NotifyPending(ctx context.Context) (sent, failed int) {
	for _, entry := range n.storage.EntriesByStatus(models.NotifyPending) {
		if ctx.Err() != nil {
			break
		}
		if err := n.deliver(ctx, entry); err != nil {
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

// Notify delivers links to a single entry regardless of its status
func (n *Notifier) Notify(ctx context.Context, email string) error {
	entry, err := n.storage.GetEntry(email)
	if err != nil {
		return err
	}
	return n.deliver(ctx, *entry)
}

func (n *Notifier) deliver(ctx context.Context, entry models.JournalEntry) error {
	err := ErrNoPhone
	if strings.TrimSpace(entry.Phone) != "" {
		err = n.sender.SendMessage(ctx, entry.Phone, n.composeMessage(entry))
	}

	if err != nil {
		n.log.Error().Str("email", entry.Email).Str("phone", entry.Phone).Err(err).Msg("Failed to send invitation links")
		if uerr := n.storage.UpdateNotification(entry.Email, models.NotifyFailed, err.Error()); uerr != nil {
			return fmt.Errorf("failed to record notification: %w", uerr)
		}
		return err
	}

	if err := n.storage.UpdateNotification(entry.Email, models.NotifySent, ""); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

func (n *Notifier) composeMessage(entry models.JournalEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 *Wedding Invitation*\n\nDear %s,\n\n", entry.Name)
	fmt.Fprintf(&b, "You are cordially invited to celebrate the wedding of\n\n*%s* & *%s*\n\n", n.config.BrideName, n.config.GroomName)
	fmt.Fprintf(&b, "📅 Date: %s\n📍 Location: %s\n\n", n.config.WeddingDate, n.config.WeddingLocation)
	fmt.Fprintf(&b, "Your invitation:\n%s\n", entry.MainLink)

	if len(entry.PlusOneLinks) > 0 {
		idx := make([]int, 0, len(entry.PlusOneLinks))
		for i := range entry.PlusOneLinks {
			idx = append(idx, i)
		}
		sort.Ints(idx)

		b.WriteString("\nPlease share these with your guests:\n")
		for _, i := range idx {
			fmt.Fprintf(&b, "%d. %s\n", i, entry.PlusOneLinks[i])
		}
	}
	return b.String()
}
