package eraser

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"wedding-invitations/internal/backend"
	"wedding-invitations/internal/models"
)

// Store is the subset of the backend session the eraser needs
type Store interface {
	ListRecords(ctx context.Context, collectionURL string, page int) ([]models.Record, error)
	DeleteRecord(ctx context.Context, collectionURL, id string) error
}

// DeleteFailure is one record that could not be deleted
type DeleteFailure struct {
	RecordID string
	Err      error
}

// DrainResult summarises the draining of one collection
type DrainResult struct {
	CollectionURL string
	Deleted       int
	Failures      []DeleteFailure
	Err           error
}

// DrainCollection deletes every record in a collection until a fetch returns
// no records or fails. A record whose delete fails is reported once and
// skipped afterwards; a page holding only such records is stepped over so the
// records behind it still get deleted.
func DrainCollection(ctx context.Context, store Store, collectionURL string, logger zerolog.Logger) (DrainResult, error) {
	result := DrainResult{CollectionURL: collectionURL}
	failed := make(map[string]bool)
	page := 1

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		records, err := store.ListRecords(ctx, collectionURL, page)
		if err != nil {
			logger.Error().
				Str("collection", collectionURL).
				Int("page", page).
				Int("status", backend.StatusCode(err)).
				Err(err).
				Msg("Failed to fetch records for deletion")
			return result, fmt.Errorf("fetch %s: %w", collectionURL, err)
		}
		if len(records) == 0 {
			break
		}

		fresh := 0
		for _, rec := range records {
			if failed[rec.ID] {
				continue
			}
			fresh++
			if err := store.DeleteRecord(ctx, collectionURL, rec.ID); err != nil {
				logger.Warn().
					Str("collection", collectionURL).
					Str("record", rec.ID).
					Int("status", backend.StatusCode(err)).
					Err(err).
					Msg("Failed to delete record")
				failed[rec.ID] = true
				result.Failures = append(result.Failures, DeleteFailure{RecordID: rec.ID, Err: err})
				continue
			}
			result.Deleted++
		}

		// Deleted records shift later ones into this page, so it is fetched
		// again until it holds nothing but known failures.
		if fresh == 0 {
			page++
		}
	}

	logger.Info().
		Str("collection", collectionURL).
		Int("deleted", result.Deleted).
		Int("failed", len(result.Failures)).
		Msg("Collection drained")
	return result, nil
}

// DeleteAll drains each collection in the given order. A fetch error stops
// only the collection it happened in.
func DeleteAll(ctx context.Context, store Store, collectionURLs []string, logger zerolog.Logger) []DrainResult {
	logger = logger.With().Str("component", "Eraser").Logger()

	results := make([]DrainResult, 0, len(collectionURLs))
	for _, u := range collectionURLs {
		result, err := DrainCollection(ctx, store, u, logger)
		result.Err = err
		results = append(results, result)
		if ctx.Err() != nil {
			break
		}
	}
	return results
}
