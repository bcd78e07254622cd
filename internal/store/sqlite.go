package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mailtriage/internal/model"
	"github.com/nhle/mailtriage/internal/parse"
	"github.com/nhle/mailtriage/internal/progress"
)

// lastFetchKey is the meta table entry recording the previous fetch time.
const lastFetchKey = "last_fetch"

// SQLiteStore implements the Store interface with a SQLite index and
// blob-per-message files under the data directory.
type SQLiteStore struct {
	db        *sqlx.DB
	msgDir    string
	attachDir string
	sink      progress.Sink
}

// NewSQLiteStore opens (or creates) the index database at dbPath and the
// blob directories under dataDir, enables WAL mode, and runs any pending
// schema migrations. Status and progress for long operations are reported
// to sink.
func NewSQLiteStore(dbPath, dataDir string, sink progress.Sink) (*SQLiteStore, error) {
	if sink == nil {
		sink = progress.Discard()
	}

	msgDir := filepath.Join(dataDir, "messages")
	attachDir := filepath.Join(dataDir, "attachments")
	for _, dir := range []string{msgDir, attachDir, filepath.Dir(dbPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, msgDir: msgDir, attachDir: attachDir, sink: sink}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Exists reports whether a message with this identity is already stored.
func (s *SQLiteStore) Exists(ctx context.Context, key model.MessageKey) (bool, error) {
	id, err := s.lookupID(ctx, key)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

// lookupID returns the storage reference for an identity, or "" when absent.
func (s *SQLiteStore) lookupID(ctx context.Context, key model.MessageKey) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id,
		`SELECT id FROM emails
		 WHERE subject = ? AND created = ? AND to_address = ? AND from_address = ?`,
		key.Subject, key.Date.UTC(), key.To, key.From,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up message identity: %w", err)
	}
	return id, nil
}

// Insert stores a message, its raw blob and its attachments. Re-inserting
// the same identity returns the existing reference without writing anything.
func (s *SQLiteStore) Insert(ctx context.Context, msg *model.Message) (string, error) {
	key := msg.Key()
	if id, err := s.lookupID(ctx, key); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	id := uuid.New().String()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO emails (id, subject, created, to_address, from_address, read, tags)
		 VALUES (?, ?, ?, ?, ?, 0, '')`,
		id, key.Subject, key.Date.UTC(), key.To, key.From,
	)
	if err != nil {
		return "", fmt.Errorf("inserting message %s: %w", id, err)
	}

	for _, part := range msg.Parts {
		if !part.IsAttachment() {
			continue
		}
		attID := uuid.New().String()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO attachments (id, email_id, filename, media_type) VALUES (?, ?, ?, ?)",
			attID, id, part.Filename, part.MediaType,
		)
		if err != nil {
			return "", fmt.Errorf("inserting attachment %s: %w", part.Filename, err)
		}
		attPath := filepath.Join(s.attachDir, attID+filepath.Ext(part.Filename))
		if err := os.WriteFile(attPath, part.Body, 0o644); err != nil {
			return "", fmt.Errorf("writing attachment blob %s: %w", attPath, err)
		}
	}

	blobPath := s.blobPath(id)
	if err := os.WriteFile(blobPath, msg.Raw, 0o644); err != nil {
		return "", fmt.Errorf("writing message blob %s: %w", blobPath, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing insert: %w", err)
	}
	return id, nil
}

// blobPath returns the raw message file for a storage reference.
func (s *SQLiteStore) blobPath(id string) string {
	return filepath.Join(s.msgDir, id+".eml")
}

// emailRef is one index row without its blob.
type emailRef struct {
	ID   string `db:"id"`
	Tags string `db:"tags"`
}

// LoadAll materializes the full stored corpus. An index entry whose blob is
// missing means the index and blob store have diverged; partial recovery is
// unsafe, so the store notifies, resets itself entirely and returns
// ErrCorrupt. The user must re-fetch.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]StoredMessage, error) {
	s.sink.Report("Loading emails...")
	return s.loadRefs(ctx, func(emailRef) bool { return true })
}

// LoadByTag returns stored messages carrying at least one of the given
// comma-joined tags.
func (s *SQLiteStore) LoadByTag(ctx context.Context, tags string) ([]StoredMessage, error) {
	s.sink.Report("Loading tagged emails...")
	return s.loadRefs(ctx, func(ref emailRef) bool {
		return tagsOverlap(ref.Tags, tags)
	})
}

// loadRefs loads every index row passing the filter together with its blob.
func (s *SQLiteStore) loadRefs(ctx context.Context, keep func(emailRef) bool) ([]StoredMessage, error) {
	var refs []emailRef
	if err := s.db.SelectContext(ctx, &refs, "SELECT id, tags FROM emails ORDER BY created"); err != nil {
		return nil, fmt.Errorf("querying email index: %w", err)
	}
	if len(refs) == 0 {
		s.sink.Report("No emails present.")
		return nil, nil
	}

	step := 100.0 / float64(len(refs))
	var loaded []StoredMessage
	for _, ref := range refs {
		raw, err := os.ReadFile(s.blobPath(ref.ID))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, s.recoverCorrupt(ctx)
		}
		if err != nil {
			return nil, fmt.Errorf("reading message blob %s: %w", ref.ID, err)
		}
		s.sink.Increment(step)
		if !keep(ref) {
			continue
		}

		msg, err := parse.Message(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing stored message %s: %w", ref.ID, err)
		}
		loaded = append(loaded, StoredMessage{ID: ref.ID, Tags: ref.Tags, Message: msg})
	}

	s.sink.Report("Finished.")
	return loaded, nil
}

// recoverCorrupt notifies the user and wipes the store. Index entries and
// blobs are coupled per message, so row-level repair was judged unsafe; the
// whole corpus is re-fetchable from the server.
func (s *SQLiteStore) recoverCorrupt(ctx context.Context) error {
	s.sink.Report("Loading database failed... corrupt elements.")
	s.sink.Report("Deleting existing database and reinitializing.")
	if err := s.Reset(ctx); err != nil {
		return fmt.Errorf("resetting corrupt store: %w", err)
	}
	return ErrCorrupt
}

// TagMerge unions the comma-joined tags into each identified message's tag
// set. Unknown identities are skipped.
func (s *SQLiteStore) TagMerge(ctx context.Context, keys []model.MessageKey, tags string) error {
	if len(keys) == 0 {
		s.sink.Report("No emails to tag.")
		return nil
	}

	s.sink.Report("Tagging emails...")
	step := 100.0 / float64(len(keys))

	for _, key := range keys {
		var row struct {
			ID   string `db:"id"`
			Tags string `db:"tags"`
		}
		err := s.db.GetContext(ctx, &row,
			`SELECT id, tags FROM emails
			 WHERE subject = ? AND created = ? AND to_address = ? AND from_address = ?`,
			key.Subject, key.Date.UTC(), key.To, key.From,
		)
		if errors.Is(err, sql.ErrNoRows) {
			s.sink.Increment(step)
			continue
		}
		if err != nil {
			return fmt.Errorf("looking up message for tagging: %w", err)
		}

		merged := MergeTags(row.Tags, tags)
		if _, err := s.db.ExecContext(ctx,
			"UPDATE emails SET tags = ? WHERE id = ?", merged, row.ID,
		); err != nil {
			return fmt.Errorf("tagging message %s: %w", row.ID, err)
		}
		s.sink.Increment(step)
	}

	s.sink.Report("Finished tagging emails.")
	return nil
}

// LastFetch returns the recorded time of the last completed fetch.
func (s *SQLiteStore) LastFetch(ctx context.Context) (time.Time, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM meta WHERE key = ?", lastFetchKey)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading last fetch time: %w", err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing last fetch time %q: %w", value, err)
	}
	return t, true, nil
}

// SaveFetchTime records the time of a completed fetch.
func (s *SQLiteStore) SaveFetchTime(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		lastFetchKey, t.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving last fetch time: %w", err)
	}
	return nil
}

// Reset destructively wipes all stored messages, attachments, tags and
// fetch bookkeeping, then recreates the empty blob directories.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.sink.Report("Resetting...")

	for _, stmt := range []string{
		"DELETE FROM attachments",
		"DELETE FROM emails",
		"DELETE FROM meta",
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing index: %w", err)
		}
	}

	for _, dir := range []string{s.msgDir, s.attachDir} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing blob directory %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("recreating blob directory %s: %w", dir, err)
		}
	}

	s.sink.Report("Reset database.")
	return nil
}
