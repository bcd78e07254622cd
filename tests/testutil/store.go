package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/mailtriage/internal/model"
	"github.com/nhle/mailtriage/internal/parse"
	"github.com/nhle/mailtriage/internal/progress"
	"github.com/nhle/mailtriage/internal/store"
)

// NewTestStore creates a SQLiteStore backed by a per-test temp directory
// with all migrations applied. It automatically closes the store when the
// test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "manager.db"), dir, progress.Discard())
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// PlainMessage builds a Message by synthesizing raw RFC 2822 bytes and
// running them through the real parser, so that identity survives a
// store round-trip.
func PlainMessage(t *testing.T, subject, from, to string, date time.Time, body string) *model.Message {
	t.Helper()

	raw := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Date: %s\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"%s\r\n",
		from, to, subject, date.Format(time.RFC1123Z), body)

	msg, err := parse.Message([]byte(raw))
	if err != nil {
		t.Fatalf("parsing synthesized message: %v", err)
	}
	return msg
}
