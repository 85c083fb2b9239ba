// Package ledger stores a principal's expense records and streams snapshots of
// them to subscribers.
package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Store is the per-user record collection. Every operation is scoped to userID.
type Store interface {
	// Add writes a new record and returns its id. ID, UserID and CreatedAt are
	// assigned by the store.
	Add(ctx context.Context, userID string, r Record) (string, error)
	Update(ctx context.Context, userID, id string, p Patch) error
	Delete(ctx context.Context, userID, id string) error
	// List returns the full snapshot, newest first.
	List(ctx context.Context, userID string) ([]Record, error)
	// HasSource reports whether a record imported from sourceID already exists.
	HasSource(ctx context.Context, userID, sourceID string) (bool, error)
	// Subscribe delivers the current snapshot and then a fresh snapshot after every
	// change, calling fn serially, until ctx is done.
	Subscribe(ctx context.Context, userID string, fn func([]Record)) error
}

// fingerprint summarizes a snapshot so pollers can skip unchanged deliveries.
func fingerprint(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s|%s|%v|%s|%s;", r.ID, r.Title, float64(r.Amount), r.Category, r.Date)
	}
	return b.String()
}
