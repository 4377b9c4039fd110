package importer

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"wedding-invitations/internal/backend"
	"wedding-invitations/internal/config"
	"wedding-invitations/internal/models"
)

// RecordCreator creates records in a backend collection
type RecordCreator interface {
	CreateRecord(ctx context.Context, collectionURL string, payload any) (models.Record, error)
}

// Journal records what was created for each invitee
type Journal interface {
	AddEntry(entry models.JournalEntry) error
}

// Importer creates guests and their invitations, one input row at a time
type Importer struct {
	records   RecordCreator
	baseURL   string
	endpoints config.Endpoints
	journal   Journal
	log       zerolog.Logger
}

// New creates an importer for the resolved configuration. journal may be nil.
func New(records RecordCreator, cfg config.Config, journal Journal, logger zerolog.Logger) *Importer {
	return &Importer{
		records:   records,
		baseURL:   cfg.BaseURL,
		endpoints: cfg.Endpoints,
		journal:   journal,
		log:       logger.With().Str("component", "Importer").Logger(),
	}
}

// InvitationLink builds the shareable link for an invitation
func InvitationLink(baseURL, invitationID string, kind models.InvitationKind) string {
	q := url.Values{}
	q.Set("id", invitationID)
	q.Set("type", string(kind))
	return strings.TrimRight(baseURL, "/") + "/?" + q.Encode()
}

// Import processes rows in order and returns an output row for every invitee
// whose guest and primary invitation were created. Failures are logged and
// never rolled back.
func (im *Importer) Import(ctx context.Context, rows []models.InputRow) []models.OutputRow {
	var out []models.OutputRow
	for _, row := range rows {
		if ctx.Err() != nil {
			im.log.Warn().Err(ctx.Err()).Msg("Import interrupted")
			break
		}
		if result, ok := im.importRow(ctx, row); ok {
			out = append(out, result)
		}
	}
	return out
}

func (im *Importer) importRow(ctx context.Context, row models.InputRow) (models.OutputRow, bool) {
	guest := models.Guest{
		Name:   row.Name,
		Email:  row.Email,
		Gender: strings.ToLower(row.Gender),
		Phone:  row.Phone,
	}
	guestRec, err := im.records.CreateRecord(ctx, im.endpoints.Guest, guest)
	if err != nil {
		im.log.Error().
			Str("email", row.Email).
			Int("status", backend.StatusCode(err)).
			Err(err).
			Msg("Failed to create guest")
		return models.OutputRow{}, false
	}

	primaryRec, err := im.records.CreateRecord(ctx, im.endpoints.PrimaryInvitation, models.Invitation{
		GuestID:   guestRec.ID,
		IsPrimary: true,
	})
	if err != nil {
		im.log.Error().
			Str("email", row.Email).
			Str("guest", guestRec.ID).
			Int("status", backend.StatusCode(err)).
			Err(err).
			Msg("Failed to create primary invitation, skipping this entry")
		return models.OutputRow{}, false
	}

	result := models.OutputRow{
		Name:         row.Name,
		Email:        row.Email,
		Phone:        row.Phone,
		MainLink:     InvitationLink(im.baseURL, primaryRec.ID, models.PrimaryInvitation),
		PlusOneLinks: make(map[int]string, row.PlusOnes),
	}

	var secondaryIDs []string
	for i := 1; i <= row.PlusOnes; i++ {
		rec, err := im.records.CreateRecord(ctx, im.endpoints.SecondaryInvitation, models.Invitation{
			GuestID:   guestRec.ID,
			IsPrimary: false,
		})
		if err != nil {
			im.log.Error().
				Str("email", row.Email).
				Int("plus_one", i).
				Int("status", backend.StatusCode(err)).
				Err(err).
				Msg("Failed to create secondary invitation")
			continue
		}
		secondaryIDs = append(secondaryIDs, rec.ID)
		result.PlusOneLinks[i] = InvitationLink(im.baseURL, rec.ID, models.SecondaryInvitation)
	}

	im.log.Info().
		Str("email", row.Email).
		Int("plus_ones", len(result.PlusOneLinks)).
		Msg("Invitee imported")

	if im.journal != nil {
		err := im.journal.AddEntry(models.JournalEntry{
			Email:                  row.Email,
			Name:                   row.Name,
			Phone:                  row.Phone,
			GuestID:                guestRec.ID,
			PrimaryInvitationID:    primaryRec.ID,
			SecondaryInvitationIDs: secondaryIDs,
			MainLink:               result.MainLink,
			PlusOneLinks:           result.PlusOneLinks,
		})
		if err != nil {
			im.log.Warn().Str("email", row.Email).Err(err).Msg("Failed to record journal entry")
		}
	}

	return result, true
}
