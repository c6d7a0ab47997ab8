package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"scrobblerbot/internal/core"
	"scrobblerbot/internal/track"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSession_CreatesIdleSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.Session(ctx, "user-1")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}

	if sess.ID != "user-1" {
		t.Errorf("ID = %q, want user-1", sess.ID)
	}
	if sess.Scene != core.SceneIdle {
		t.Errorf("New session scene = %q, want idle", sess.Scene)
	}
	if sess.Authorized() {
		t.Error("New session should not be authorized")
	}
	if sess.Scrobbles != 0 {
		t.Errorf("New session scrobbles = %d, want 0", sess.Scrobbles)
	}
}

func TestSaveSession_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.Session(ctx, "user-1")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}

	sess.Scene = core.SceneEditAlbum
	sess.SessionKey = "sk-1"
	sess.AccountName = "alice"
	sess.PendingIntent = "album"
	sess.DraftArtist = "Radiohead"
	sess.DraftAlbum = "OK Computer"
	sess.Draft = track.TrackBatch{
		{Name: "Airbag", Artist: "Radiohead", Album: "OK Computer"},
		{Name: "Paranoid Android", Artist: "Radiohead", Album: "OK Computer"},
	}
	sess.LastScrobble = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	loaded, err := s.Session(ctx, "user-1")
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if loaded.Scene != core.SceneEditAlbum {
		t.Errorf("Scene = %q, want edit_album", loaded.Scene)
	}
	if loaded.SessionKey != "sk-1" || loaded.AccountName != "alice" {
		t.Errorf("Credential mismatch: %+v", loaded)
	}
	if loaded.PendingIntent != "album" {
		t.Errorf("PendingIntent = %q, want album", loaded.PendingIntent)
	}
	if !reflect.DeepEqual(loaded.Draft, sess.Draft) {
		t.Errorf("Draft mismatch:\n got %+v\nwant %+v", loaded.Draft, sess.Draft)
	}
	if !loaded.LastScrobble.Equal(sess.LastScrobble) {
		t.Errorf("LastScrobble = %v, want %v", loaded.LastScrobble, sess.LastScrobble)
	}
}

func TestRecordSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sess, err := s.Session(ctx, "user-1")
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	sess.Scene = core.SceneTrack
	sess.Draft = track.TrackBatch{{Name: "stale", Artist: "stale"}}
	sess.PendingIntent = "track"
	if err := s.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	batch := track.TrackBatch{{Name: "Airbag", Artist: "Radiohead", Album: "OK Computer"}}
	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	if err := s.RecordSuccess(ctx, "user-1", "msg-1", batch, at); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	loaded, err := s.Session(ctx, "user-1")
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if loaded.Scrobbles != 1 {
		t.Errorf("Scrobbles = %d, want 1", loaded.Scrobbles)
	}
	if !loaded.LastScrobble.Equal(at) {
		t.Errorf("LastScrobble = %v, want %v", loaded.LastScrobble, at)
	}
	if loaded.Scene != core.SceneIdle {
		t.Errorf("Scene = %q, want idle", loaded.Scene)
	}
	if len(loaded.Draft) != 0 || loaded.PendingIntent != "" {
		t.Errorf("Success should clear draft and pending intent: %+v", loaded)
	}

	got, err := s.LookupAttemptedBatch(ctx, "msg-1")
	if err != nil {
		t.Fatalf("LookupAttemptedBatch failed: %v", err)
	}
	if !reflect.DeepEqual(got, batch) {
		t.Errorf("Ledger batch mismatch:\n got %+v\nwant %+v", got, batch)
	}
}

func TestRecordFailure_UpsertKeepsLatestBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := track.TrackBatch{{Name: "a", Artist: "x"}}
	second := track.TrackBatch{{Name: "b", Artist: "y"}, {Name: "c", Artist: "y"}}
	at := time.Now()

	if err := s.RecordFailure(ctx, "msg-1", first, at); err != nil {
		t.Fatalf("First RecordFailure failed: %v", err)
	}
	if err := s.RecordFailure(ctx, "msg-1", second, at.Add(time.Minute)); err != nil {
		t.Fatalf("Second RecordFailure failed: %v", err)
	}

	got, err := s.LookupAttemptedBatch(ctx, "msg-1")
	if err != nil {
		t.Fatalf("LookupAttemptedBatch failed: %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Errorf("Ledger should hold the latest batch:\n got %+v\nwant %+v", got, second)
	}
}

func TestLookupAttemptedBatch_PreservesDurations(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A retried album must resubmit the literal attempted durations, not
	// re-defaulted ones.
	batch := track.TrackBatch{
		{Name: "Airbag", Artist: "Radiohead", Album: "OK Computer", Duration: 284},
		{Name: "Paranoid Android", Artist: "Radiohead", Album: "OK Computer", Duration: 387},
	}

	if err := s.RecordFailure(ctx, "msg-1", batch, time.Now()); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}

	got, err := s.LookupAttemptedBatch(ctx, "msg-1")
	if err != nil {
		t.Fatalf("LookupAttemptedBatch failed: %v", err)
	}
	if !reflect.DeepEqual(got, batch) {
		t.Errorf("Ledger batch mismatch:\n got %+v\nwant %+v", got, batch)
	}
}

func TestLookupAttemptedBatch_NoRecord(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LookupAttemptedBatch(context.Background(), "unknown")
	if !errors.Is(err, core.ErrNoRecord) {
		t.Errorf("Expected ErrNoRecord, got %v", err)
	}
}
