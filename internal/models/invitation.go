package models

import "time"

// InvitationKind is the type discriminator embedded in shareable links
type InvitationKind string

const (
	PrimaryInvitation   InvitationKind = "primary_invitation"
	SecondaryInvitation InvitationKind = "secondary_invitation"
)

// Invitation links a guest to one shareable invitation
type Invitation struct {
	GuestID   string `json:"guest"`
	IsPrimary bool   `json:"is_primary"`
}

// OutputRow holds the generated links for one successfully started invitee.
// PlusOneLinks is keyed by the 1-based plus-one index; failed plus-ones are absent.
type OutputRow struct {
	Name         string
	Email        string
	Phone        string
	MainLink     string
	PlusOneLinks map[int]string
}

// NotifyStatus tracks delivery of the links to the guest
type NotifyStatus string

const (
	NotifyPending NotifyStatus = "pending"
	NotifySent    NotifyStatus = "sent"
	NotifyFailed  NotifyStatus = "failed"
)

// JournalEntry is the local record of what was created for one invitee
type JournalEntry struct {
	Email                  string         `json:"email"`
	Name                   string         `json:"name"`
	Phone                  string         `json:"phone"`
	GuestID                string         `json:"guest_id"`
	PrimaryInvitationID    string         `json:"primary_invitation_id"`
	SecondaryInvitationIDs []string       `json:"secondary_invitation_ids,omitempty"`
	MainLink               string         `json:"main_link"`
	PlusOneLinks           map[int]string `json:"plus_one_links,omitempty"`
	ImportedAt             time.Time      `json:"imported_at"`
	NotifyStatus           NotifyStatus   `json:"notify_status"`
	NotifiedAt             *time.Time     `json:"notified_at,omitempty"`
	Notes                  string         `json:"notes,omitempty"`
}
