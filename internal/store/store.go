// Package store persists fetched messages, their attachments and tags.
// The SQLite index tracks identity and tags; raw message bytes live in
// blob-per-message files under the data directory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/mailtriage/internal/model"
)

// ErrCorrupt is returned when an index entry exists but its backing message
// blob is missing. The store has already been reset by the time callers see
// it; the local corpus must be re-fetched.
var ErrCorrupt = errors.New("store: message blob missing, store was reset")

// StoredMessage pairs a persisted message with its storage reference.
type StoredMessage struct {
	// ID is the storage reference, stable within this store only.
	ID string

	// Tags is the comma-joined tag set currently on the message.
	Tags string

	Message *model.Message
}

// Store is the persistence contract the core depends on.
type Store interface {
	// Exists reports whether a message with this identity is stored.
	Exists(ctx context.Context, key model.MessageKey) (bool, error)

	// Insert stores a message and its attachments, returning the storage
	// reference. Inserting an already-stored identity is a no-op returning
	// the existing reference.
	Insert(ctx context.Context, msg *model.Message) (string, error)

	// LoadAll materializes the full corpus. A missing blob is treated as
	// whole-store corruption: the store notifies, resets itself and
	// returns ErrCorrupt.
	LoadAll(ctx context.Context) ([]StoredMessage, error)

	// TagMerge unions the given comma-joined tags into each identified
	// message's tag set.
	TagMerge(ctx context.Context, keys []model.MessageKey, tags string) error

	// LoadByTag returns messages carrying at least one of the given
	// comma-joined tags.
	LoadByTag(ctx context.Context, tags string) ([]StoredMessage, error)

	// LastFetch returns the recorded time of the last completed fetch;
	// ok is false when no fetch has completed yet.
	LastFetch(ctx context.Context) (t time.Time, ok bool, err error)

	// SaveFetchTime records the time of a completed fetch.
	SaveFetchTime(ctx context.Context, t time.Time) error

	// Reset destructively wipes all stored messages, blobs and tags.
	Reset(ctx context.Context) error

	Close() error
}
