// Package store persists user sessions and the submission message ledger in
// sqlite, and provides redelivery deduplication for inbound updates.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"go.uber.org/zap"

	"scrobblerbot/internal/core"
	"scrobblerbot/internal/track"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	scene          TEXT NOT NULL DEFAULT 'idle',
	auth_token     TEXT NOT NULL DEFAULT '',
	session_key    TEXT NOT NULL DEFAULT '',
	account_name   TEXT NOT NULL DEFAULT '',
	pending_intent TEXT NOT NULL DEFAULT '',
	draft          TEXT NOT NULL DEFAULT '',
	draft_artist   TEXT NOT NULL DEFAULT '',
	draft_album    TEXT NOT NULL DEFAULT '',
	scrobbles      INTEGER NOT NULL DEFAULT 0,
	last_scrobble  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	message_id TEXT PRIMARY KEY,
	outcome    TEXT NOT NULL,
	tracks     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Store implements core.Store on a sqlite database. Batches are persisted in
// the codec's encoded form, so a ledger row is self-contained: a retry can
// reconstruct the exact attempted batch from the row alone.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("Store opened", zap.String("path", path))

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session fetches the session for a user, creating an idle one if absent.
func (s *Store) Session(ctx context.Context, userID string) (*core.UserSession, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id) VALUES (?)`, userID); err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT scene, auth_token, session_key, account_name, pending_intent,
		        draft, draft_artist, draft_album, scrobbles, last_scrobble
		 FROM users WHERE id = ?`, userID)

	var (
		sess         = core.UserSession{ID: userID}
		scene        string
		draft        string
		lastScrobble int64
	)
	if err := row.Scan(&scene, &sess.AuthToken, &sess.SessionKey, &sess.AccountName,
		&sess.PendingIntent, &draft, &sess.DraftArtist, &sess.DraftAlbum,
		&sess.Scrobbles, &lastScrobble); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	sess.Scene = core.Scene(scene)
	if lastScrobble > 0 {
		sess.LastScrobble = time.Unix(lastScrobble, 0)
	}
	if draft != "" {
		batch, err := track.Decode(draft)
		if err != nil {
			return nil, fmt.Errorf("load session draft: %w", err)
		}
		sess.Draft = batch
	}

	return &sess, nil
}

// SaveSession persists the full session document.
func (s *Store) SaveSession(ctx context.Context, sess *core.UserSession) error {
	var lastScrobble int64
	if !sess.LastScrobble.IsZero() {
		lastScrobble = sess.LastScrobble.Unix()
	}

	var draft string
	if len(sess.Draft) > 0 {
		draft = track.Encode(sess.Draft)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET scene = ?, auth_token = ?, session_key = ?, account_name = ?,
		        pending_intent = ?, draft = ?, draft_artist = ?, draft_album = ?,
		        scrobbles = ?, last_scrobble = ?
		 WHERE id = ?`,
		string(sess.Scene), sess.AuthToken, sess.SessionKey, sess.AccountName,
		sess.PendingIntent, draft, sess.DraftArtist, sess.DraftAlbum,
		sess.Scrobbles, lastScrobble, sess.ID)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

// RecordSuccess writes the succeeded ledger entry and the session's counter,
// timestamp, and idle reset in a single transaction: both or neither.
func (s *Store) RecordSuccess(ctx context.Context, userID, messageID string, batch track.TrackBatch, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record success: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET scrobbles = scrobbles + 1, last_scrobble = ?,
		        scene = ?, draft = '', draft_artist = '', draft_album = '', pending_intent = ''
		 WHERE id = ?`,
		at.Unix(), string(core.SceneIdle), userID); err != nil {
		return fmt.Errorf("record success: update session: %w", err)
	}

	if err := upsertRecord(ctx, tx, messageID, core.SubmissionSucceeded, batch, at); err != nil {
		return fmt.Errorf("record success: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record success: commit: %w", err)
	}

	return nil
}

// RecordFailure upserts a failed ledger entry keyed by message ID. A retry
// reuses the visible message, so a second call overwrites the first and the
// row always holds the batch that was actually attempted last.
func (s *Store) RecordFailure(ctx context.Context, messageID string, batch track.TrackBatch, at time.Time) error {
	if err := upsertRecord(ctx, s.db, messageID, core.SubmissionFailed, batch, at); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}

// LookupAttemptedBatch reconstructs the batch recorded against a message.
func (s *Store) LookupAttemptedBatch(ctx context.Context, messageID string) (track.TrackBatch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT tracks FROM messages WHERE message_id = ?`, messageID)

	var encoded string
	if err := row.Scan(&encoded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: message %s", core.ErrNoRecord, messageID)
		}
		return nil, fmt.Errorf("lookup batch: %w", err)
	}

	batch, err := track.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("lookup batch: %w", err)
	}

	return batch, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRecord(ctx context.Context, db execer, messageID string, outcome core.SubmissionOutcome, batch track.TrackBatch, at time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO messages (message_id, outcome, tracks, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(message_id) DO UPDATE SET
		        outcome = excluded.outcome,
		        tracks = excluded.tracks,
		        created_at = excluded.created_at`,
		messageID, string(outcome), track.Encode(batch), at.Unix())
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}
