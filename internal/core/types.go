package core

import (
	"context"
	"errors"
	"time"

	"scrobblerbot/internal/track"
)

// ErrNotAuthorized is returned by SubmissionClient auth calls when the
// service reports that access has not been granted for the token.
var ErrNotAuthorized = errors.New("access not granted")

// ErrNoRecord is returned by Store ledger lookups when no entry exists for a
// message.
var ErrNoRecord = errors.New("no submission record")

// Scene identifies the conversation state a user session is currently in.
type Scene string

// The closed set of conversation scenes.
const (
	// SceneIdle is the resting state between flows
	SceneIdle Scene = "idle"
	// SceneAuth waits for the user to complete the external auth grant
	SceneAuth Scene = "auth"
	// SceneTrack composes a single-track submission
	SceneTrack Scene = "track"
	// SceneAlbum composes an album submission (artist + album title)
	SceneAlbum Scene = "album"
	// SceneTracklist composes an explicit tracklist submission
	SceneTracklist Scene = "tracklist"
	// SceneEditAlbum rewrites the track names of a composed album batch
	SceneEditAlbum Scene = "edit_album"
	// SceneRetryConfirm waits for the user to retry or cancel a failed submission
	SceneRetryConfirm Scene = "retry_confirm"
)

// UserSession is the per-user document owned by the session store. The state
// machine re-fetches it on every turn and never caches a copy across turns.
type UserSession struct {
	ID            string
	Scene         Scene
	AuthToken     string // in-flight grant token, valid only within one auth scene entry
	SessionKey    string // credential for the tracking service; empty means unauthenticated
	AccountName   string
	PendingIntent string // command to re-dispatch once the auth grant completes
	Draft         track.TrackBatch
	DraftArtist   string
	DraftAlbum    string
	Scrobbles     int
	LastScrobble  time.Time
}

// Authorized reports whether the session holds a service credential.
func (s *UserSession) Authorized() bool {
	return s.SessionKey != ""
}

// OutcomeKind classifies the result of one submission attempt.
type OutcomeKind int

const (
	// OutcomeSuccess means the tracking service accepted the batch
	OutcomeSuccess OutcomeKind = iota
	// OutcomeAuthRequired means the service rejected the credential
	OutcomeAuthRequired
	// OutcomeRetryable means any other failure the user may retry
	OutcomeRetryable
)

// Outcome is the classified result of exactly one submission call. The batch
// is carried along so a retryable failure can be resubmitted unchanged.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Batch  track.TrackBatch
}

// SubmissionOutcome is the terminal state recorded in the message ledger.
type SubmissionOutcome string

// Ledger outcome values.
const (
	SubmissionSucceeded SubmissionOutcome = "succeeded"
	SubmissionFailed    SubmissionOutcome = "failed"
)

// SubmissionRecord is one ledger entry, keyed by the chat message that
// rendered the attempt's outcome.
type SubmissionRecord struct {
	MessageID string
	Outcome   SubmissionOutcome
	Batch     track.TrackBatch
	CreatedAt time.Time
}

// SubmissionClient wraps the external tracking service. Scrobble performs
// exactly one network call and classifies the response itself; callers never
// re-interpret outcomes downstream.
type SubmissionClient interface {
	// GetToken requests a fresh auth grant token from the service.
	GetToken(ctx context.Context) (string, error)
	// AuthURL builds the user-facing grant URL for a token.
	AuthURL(token string) string
	// GetSession exchanges a granted token for an account name and session key.
	GetSession(ctx context.Context, token string) (account, key string, err error)
	// Scrobble submits a batch under the given credential.
	Scrobble(ctx context.Context, sessionKey string, batch track.TrackBatch) Outcome
	// AlbumInfo fetches the ordered tracklist of an album.
	AlbumInfo(ctx context.Context, artist, album string) (track.TrackBatch, error)
}

// Store is the session and ledger document store. Implementations must give
// read-your-writes consistency per key; RecordSuccess performs the paired
// counter-plus-ledger update atomically (both or neither).
type Store interface {
	// Session fetches the session for a user, creating an idle one if absent.
	Session(ctx context.Context, userID string) (*UserSession, error)
	// SaveSession persists the full session document.
	SaveSession(ctx context.Context, session *UserSession) error
	// RecordSuccess writes a succeeded ledger entry, increments the user's
	// scrobble counter, stamps the last successful submission, and resets the
	// session to idle, all in one transaction.
	RecordSuccess(ctx context.Context, userID, messageID string, batch track.TrackBatch, at time.Time) error
	// RecordFailure upserts a failed ledger entry keyed by message ID.
	RecordFailure(ctx context.Context, messageID string, batch track.TrackBatch, at time.Time) error
	// LookupAttemptedBatch reconstructs the batch recorded against a message.
	LookupAttemptedBatch(ctx context.Context, messageID string) (track.TrackBatch, error)
}

// Notifier is a fire-and-forget sink for operator alerts. Failures must never
// affect the user-facing flow.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
