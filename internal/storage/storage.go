package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"wedding-invitations/internal/models"
)

// ErrEntryNotFound is returned when no journal entry exists for an email
var ErrEntryNotFound = errors.New("journal entry not found")

// Storage is the local import journal: what was created in the backend for
// each invitee, and whether their links were delivered.
type Storage struct {
	mu      sync.RWMutex
	entries []models.JournalEntry
	file    string
	now     func() time.Time
}

// NewStorage creates a new journal backed by filePath
func NewStorage(filePath string) (*Storage, error) {
	s := &Storage{
		entries: make([]models.JournalEntry, 0),
		file:    filePath,
		now:     time.Now,
	}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("failed to load journal: %w", err)
		}
	}

	return s, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddEntry adds a new entry or replaces the one with the same email.
// A sent status survives a replace only when the links did not change.
func (s *Storage) AddEntry(entry models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ImportedAt.IsZero() {
		entry.ImportedAt = s.now()
	}
	if entry.NotifyStatus == "" {
		entry.NotifyStatus = models.NotifyPending
	}

	key := emailKey(entry.Email)
	for i, e := range s.entries {
		if emailKey(e.Email) != key {
			continue
		}
		if e.NotifyStatus == models.NotifySent && sameLinks(e, entry) {
			entry.NotifyStatus = e.NotifyStatus
			entry.NotifiedAt = e.NotifiedAt
		}
		s.entries[i] = entry
		return s.Save()
	}

	s.entries = append(s.entries, entry)
	return s.Save()
}

func sameLinks(a, b models.JournalEntry) bool {
	return a.MainLink == b.MainLink && maps.Equal(a.PlusOneLinks, b.PlusOneLinks)
}

// GetEntry retrieves an entry by email
func (s *Storage) GetEntry(email string) (*models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := emailKey(email)
	for _, e := range s.entries {
		if emailKey(e.Email) == key {
			return &e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, email)
}

// UpdateNotification records the delivery outcome for an entry
func (s *Storage) UpdateNotification(email string, status models.NotifyStatus, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(email)
	for i, e := range s.entries {
		if emailKey(e.Email) == key {
			s.entries[i].NotifyStatus = status
			notifiedAt := s.now()
			s.entries[i].NotifiedAt = &notifiedAt
			s.entries[i].Notes = notes
			return s.Save()
		}
	}
	return fmt.Errorf("%w: %s", ErrEntryNotFound, email)
}

// AllEntries returns all entries in import order
func (s *Storage) AllEntries() []models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.JournalEntry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// EntriesByStatus returns entries filtered by notification status
func (s *Storage) EntriesByStatus(status models.NotifyStatus) []models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.JournalEntry
	for _, e := range s.entries {
		if e.NotifyStatus == status {
			result = append(result, e)
		}
	}
	return result
}

// Reset drops every entry, used after the backend has been drained
func (s *Storage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]models.JournalEntry, 0)
	return s.Save()
}

// Save writes the journal to file. Callers must hold the lock.
func (s *Storage) Save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return os.WriteFile(s.file, data, 0644)
}

// Load loads entries from file
func (s *Storage) Load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		s.entries = make([]models.JournalEntry, 0)
		return nil
	}

	if err := json.Unmarshal(data, &s.entries); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].ImportedAt.Before(s.entries[j].ImportedAt)
	})
	return nil
}
