// Package seen records which post identifiers have already been processed.
//
// Every backend keeps the full history in memory after Load so membership
// tests never touch the backing medium. A Store supports exactly one writer:
// runs against the same medium must be serialized by the caller.
package seen

import (
	"context"
	"strings"
)

// Store is a durable, append-only set of post identifiers.
type Store interface {
	// Load reads the full history in discovery order. A missing medium is an
	// empty history.
	Load(ctx context.Context) ([]string, error)

	// Contains reports whether id was previously loaded or appended.
	Contains(id string) bool

	// Append durably records the ids that are not already present. It
	// returns a *domain.StorageWriteError if the medium rejects the write,
	// in which case none of the ids count as recorded.
	Append(ctx context.Context, ids ...string) error

	// Len returns the number of recorded ids.
	Len() int

	// Location describes where the history lives, for logs.
	Location() string

	Close() error
}

func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = normalizeID(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
