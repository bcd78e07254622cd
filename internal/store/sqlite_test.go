package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/nhle/mailtriage/internal/model"
	"github.com/nhle/mailtriage/internal/store"
	"github.com/nhle/mailtriage/tests/testutil"
)

var testDate = time.Date(2023, time.March, 14, 9, 30, 0, 0, time.UTC)

func TestInsertIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := testutil.PlainMessage(t, "Invoice March", "bob@example.com",
		"alice@example.com", testDate, "see attached")

	first, err := s.Insert(ctx, msg)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second, err := s.Insert(ctx, msg)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if first != second {
		t.Errorf("duplicate insert returned new reference: %q then %q", first, second)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("stored %d copies, want 1", len(all))
	}
}

func TestExists(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := testutil.PlainMessage(t, "hello", "bob@example.com",
		"alice@example.com", testDate, "hi")

	ok, err := s.Exists(ctx, msg.Key())
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("Exists before insert = true")
	}

	if _, err := s.Insert(ctx, msg); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	ok, err = s.Exists(ctx, msg.Key())
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("Exists after insert = false")
	}
}

func TestLoadAllRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := testutil.PlainMessage(t, "Invoice March", "bob@example.com",
		"alice@example.com", testDate, "see attached")
	if _, err := s.Insert(ctx, msg); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d messages, want 1", len(all))
	}

	loaded := all[0].Message
	if loaded.Key() != msg.Key() {
		t.Errorf("identity changed across round-trip: %+v vs %+v",
			loaded.Key(), msg.Key())
	}
}

func TestTagMergeUnion(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := testutil.PlainMessage(t, "hello", "bob@example.com",
		"alice@example.com", testDate, "hi")
	if _, err := s.Insert(ctx, msg); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	keys := []model.MessageKey{msg.Key()}
	if err := s.TagMerge(ctx, keys, "work,urgent"); err != nil {
		t.Fatalf("first TagMerge: %v", err)
	}
	if err := s.TagMerge(ctx, keys, "work,home"); err != nil {
		t.Fatalf("second TagMerge: %v", err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d messages, want 1", len(all))
	}

	got := store.SplitTags(all[0].Tags)
	want := []string{"work", "urgent", "home"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestTagMergeUnknownKeySkipped(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	keys := []model.MessageKey{{Subject: "nope", Date: testDate}}
	if err := s.TagMerge(ctx, keys, "work"); err != nil {
		t.Errorf("TagMerge with unknown key: %v", err)
	}
}

func TestLoadByTag(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	inv := testutil.PlainMessage(t, "Invoice March", "bob@example.com",
		"alice@example.com", testDate, "invoice")
	memo := testutil.PlainMessage(t, "Meeting Notes", "bob@example.com",
		"alice@example.com", testDate.Add(time.Hour), "notes")
	for _, m := range []*model.Message{inv, memo} {
		if _, err := s.Insert(ctx, m); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	if err := s.TagMerge(ctx, []model.MessageKey{inv.Key()}, "invoice"); err != nil {
		t.Fatalf("TagMerge: %v", err)
	}

	tagged, err := s.LoadByTag(ctx, "invoice")
	if err != nil {
		t.Fatalf("LoadByTag: %v", err)
	}
	if len(tagged) != 1 {
		t.Fatalf("got %d tagged messages, want 1", len(tagged))
	}
	if tagged[0].Message.Subject != "Invoice March" {
		t.Errorf("tagged subject = %q", tagged[0].Message.Subject)
	}

	none, err := s.LoadByTag(ctx, "absent")
	if err != nil {
		t.Fatalf("LoadByTag: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d messages for absent tag, want 0", len(none))
	}
}

func TestCorruptStoreRecovery(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "manager.db"), dir, nil)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	for i, subject := range []string{"one", "two"} {
		msg := testutil.PlainMessage(t, subject, "bob@example.com",
			"alice@example.com", testDate.Add(time.Duration(i)*time.Hour), "body")
		if _, err := s.Insert(ctx, msg); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	// Delete one backing blob out-of-band.
	blobs, err := filepath.Glob(filepath.Join(dir, "messages", "*.eml"))
	if err != nil || len(blobs) != 2 {
		t.Fatalf("globbing blobs: %v (%d found)", err, len(blobs))
	}
	if err := os.Remove(blobs[0]); err != nil {
		t.Fatalf("removing blob: %v", err)
	}

	_, err = s.LoadAll(ctx)
	if !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("LoadAll on corrupt store: got %v, want ErrCorrupt", err)
	}

	// The store was fully reset; a fresh load finds nothing.
	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll after reset: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d messages after reset, want 0", len(all))
	}
}

func TestLastFetchRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LastFetch(ctx)
	if err != nil {
		t.Fatalf("LastFetch: %v", err)
	}
	if ok {
		t.Error("LastFetch before any fetch reported ok")
	}

	if err := s.SaveFetchTime(ctx, testDate); err != nil {
		t.Fatalf("SaveFetchTime: %v", err)
	}

	got, ok, err := s.LastFetch(ctx)
	if err != nil {
		t.Fatalf("LastFetch: %v", err)
	}
	if !ok {
		t.Fatal("LastFetch after save reported not ok")
	}
	if !got.Equal(testDate) {
		t.Errorf("LastFetch = %v, want %v", got, testDate)
	}
}

func TestReset(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	msg := testutil.PlainMessage(t, "hello", "bob@example.com",
		"alice@example.com", testDate, "hi")
	if _, err := s.Insert(ctx, msg); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.SaveFetchTime(ctx, testDate); err != nil {
		t.Fatalf("SaveFetchTime: %v", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	all, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("got %d messages after reset, want 0", len(all))
	}

	if _, ok, _ := s.LastFetch(ctx); ok {
		t.Error("fetch bookkeeping survived reset")
	}
}
