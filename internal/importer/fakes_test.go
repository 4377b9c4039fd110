package importer

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"wedding-invitations/internal/backend"
	"wedding-invitations/internal/models"
)

type createCall struct {
	url     string
	payload any
}

// fakeCreator satisfies RecordCreator, failing any call for which fail
// returns true.
type fakeCreator struct {
	calls  []createCall
	counts map[string]int
	fail   func(url string, n int) bool
}

func (f *fakeCreator) CreateRecord(_ context.Context, collectionURL string, payload any) (models.Record, error) {
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.calls = append(f.calls, createCall{url: collectionURL, payload: payload})
	f.counts[collectionURL]++
	n := f.counts[collectionURL]

	if f.fail != nil && f.fail(collectionURL, n) {
		return models.Record{}, &backend.StatusError{Method: http.MethodPost, URL: collectionURL, StatusCode: http.StatusBadRequest}
	}
	return models.Record{ID: fmt.Sprintf("%s-%d", lastSegment(collectionURL), len(f.calls))}, nil
}

func (f *fakeCreator) callsTo(collectionURL string) []createCall {
	var out []createCall
	for _, c := range f.calls {
		if c.url == collectionURL {
			out = append(out, c)
		}
	}
	return out
}

func lastSegment(u string) string {
	return path.Base(strings.TrimSuffix(u, "/records"))
}

type fakeJournal struct {
	entries []models.JournalEntry
	err     error
}

func (f *fakeJournal) AddEntry(entry models.JournalEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}
