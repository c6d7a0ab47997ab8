package core

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"scrobblerbot/internal/chat"
	"scrobblerbot/internal/track"
)

// Callback data values carried by inline buttons.
const (
	// CallbackAccessGranted confirms the external auth grant was completed
	CallbackAccessGranted = "ACCESS_GRANTED"
	// CallbackScrobbleAlbum submits the previewed album draft
	CallbackScrobbleAlbum = "SCROBBLE_ALBUM"
	// CallbackEditAlbum opens the album draft for track-name editing
	CallbackEditAlbum = "EDIT_ALBUM"
	// CallbackRetry resubmits the batch recorded against the failure message
	CallbackRetry = "RETRY"
	// CallbackRepeat resubmits the batch recorded against the success message
	CallbackRepeat = "REPEAT"
	// CallbackCancel abandons the current flow
	CallbackCancel = "CANCEL"
)

// favSongs are format examples shown when prompting for a single track.
var favSongs = []track.Track{
	{Name: "Karma Police", Artist: "Radiohead", Album: "OK Computer"},
	{Name: "Pyramid Song", Artist: "Radiohead", Album: "Amnesiac"},
	{Name: "Chan Chan", Artist: "Buena Vista Social Club", Album: "Buena Vista Social Club"},
	{Name: "Clint Eastwood", Artist: "Gorillaz", Album: "Gorillaz"},
	{Name: "Space Oddity", Artist: "David Bowie", Album: "David Bowie"},
}

func randomFavSong() track.Track {
	return favSongs[rand.Intn(len(favSongs))] //nolint:gosec // format example, not security sensitive
}

// handleCommand handles slash commands and main menu selections.
func (m *Machine) handleCommand(ctx context.Context, sess *UserSession, ev *chat.Event) error {
	switch ev.Command {
	case "start":
		sess.Scene = SceneIdle
		sess.Draft = nil
		sess.PendingIntent = ""
		if err := m.store.SaveSession(ctx, sess); err != nil {
			return err
		}
		_, err := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("prompt.start"), nil)
		return err

	case "help":
		_, err := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("prompt.help"), nil)
		return err

	case "cancel":
		return m.resetToIdle(ctx, sess, ev.ChatID)

	case "track", "album", "tracklist":
		if !sess.Authorized() {
			// Remember what the user wanted so the intent can be
			// re-dispatched once the grant completes.
			sess.PendingIntent = ev.Command
			return m.enterAuth(ctx, sess, ev)
		}
		return m.beginCompose(ctx, sess, ev.ChatID, ev.Command)

	default:
		_, err := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("prompt.idle"), nil)
		return err
	}
}

// beginCompose enters the composing scene for a command and prompts for input.
func (m *Machine) beginCompose(ctx context.Context, sess *UserSession, chatID, command string) error {
	var scene Scene
	var prompt string

	switch command {
	case "track":
		scene = SceneTrack
		song := randomFavSong()
		prompt = m.localizer.T("prompt.track", song.Name, song.Artist, song.Album)
	case "album":
		scene = SceneAlbum
		prompt = m.localizer.T("prompt.album")
	case "tracklist":
		scene = SceneTracklist
		prompt = m.localizer.T("prompt.tracklist")
	default:
		scene = SceneIdle
		prompt = m.localizer.T("prompt.idle")
	}

	sess.Scene = scene
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	_, err := m.frontend.SendMessage(ctx, chatID, prompt, nil)
	return err
}

// handleText routes a free-text message by the session's current scene.
func (m *Machine) handleText(ctx context.Context, sess *UserSession, ev *chat.Event) error {
	lines := track.SplitLines(ev.Text)

	switch sess.Scene {
	case SceneTrack:
		if len(lines) < 2 {
			_, err := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("scrobble.invalid"), nil)
			return err
		}
		t := track.Track{Name: lines[0], Artist: lines[1]}
		if len(lines) > 2 {
			t.Album = lines[2]
		}
		_, err := m.submit(ctx, sess, ev, track.TrackBatch{t}, "")
		return err

	case SceneAlbum:
		return m.composeAlbum(ctx, sess, ev, lines)

	case SceneTracklist:
		_, err := m.submit(ctx, sess, ev, track.ParseTrackList(lines), "")
		return err

	case SceneEditAlbum:
		batch := track.ParseFreeText(lines)
		for i := range batch {
			batch[i].Artist = sess.DraftArtist
			batch[i].Album = sess.DraftAlbum
		}
		sess.Draft = batch
		if err := m.store.SaveSession(ctx, sess); err != nil {
			return err
		}
		_, err := m.submit(ctx, sess, ev, batch, "")
		return err

	case SceneAuth:
		_, err := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("prompt.auth"), nil)
		return err

	case SceneIdle, SceneRetryConfirm:
		_, err := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("prompt.idle"), nil)
		return err
	}

	return nil
}

// composeAlbum resolves an "Artist\nAlbum" message into a draft tracklist
// and previews it with Scrobble/Edit/Cancel affordances.
func (m *Machine) composeAlbum(ctx context.Context, sess *UserSession, ev *chat.Event, lines []string) error {
	if len(lines) < 2 {
		_, err := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("prompt.album"), nil)
		return err
	}

	artist, album := lines[0], lines[1]
	batch, err := m.client.AlbumInfo(ctx, artist, album)
	if err != nil {
		m.logger.Debug("Album lookup failed",
			zap.String("artist", artist),
			zap.String("album", album),
			zap.Error(err))
		_, sendErr := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("album.not_found"), nil)
		return sendErr
	}

	sess.Draft = batch
	sess.DraftArtist = batch[0].Artist
	sess.DraftAlbum = batch[0].Album
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	names := make([]string, 0, len(batch))
	for _, t := range batch {
		names = append(names, t.Name)
	}

	_, err = m.frontend.SendMessage(ctx, ev.ChatID,
		m.localizer.T("prompt.album_preview", sess.DraftArtist, sess.DraftAlbum, strings.Join(names, "\n")),
		[][]chat.Button{
			{{Text: m.localizer.T("button.scrobble"), Data: CallbackScrobbleAlbum}},
			{
				{Text: m.localizer.T("button.edit"), Data: CallbackEditAlbum},
				{Text: m.localizer.T("button.cancel"), Data: CallbackCancel},
			},
		})
	return err
}

// handleCallback handles inline-button presses.
func (m *Machine) handleCallback(ctx context.Context, sess *UserSession, ev *chat.Event) error {
	toast := ""
	defer func() {
		if err := m.frontend.AnswerCallback(ctx, ev.CallbackID, toast); err != nil {
			m.logger.Debug("Failed to answer callback query", zap.Error(err))
		}
	}()

	switch ev.CallbackData {
	case CallbackAccessGranted:
		if sess.AuthToken == "" {
			toast = m.localizer.T("callback.expired")
			return nil
		}
		return m.completeAuth(ctx, sess, ev)

	case CallbackScrobbleAlbum:
		if len(sess.Draft) == 0 {
			toast = m.localizer.T("callback.expired")
			return nil
		}
		var err error
		toast, err = m.submit(ctx, sess, ev, sess.Draft, ev.MessageID)
		return err

	case CallbackEditAlbum:
		if len(sess.Draft) == 0 {
			toast = m.localizer.T("callback.expired")
			return nil
		}
		return m.enterEditAlbum(ctx, sess, ev)

	case CallbackRetry, CallbackRepeat:
		batch, err := m.store.LookupAttemptedBatch(ctx, ev.MessageID)
		if err != nil {
			if errors.Is(err, ErrNoRecord) {
				toast = m.localizer.T("callback.expired")
				return nil
			}
			// A corrupt ledger row is an internal fault, not user input.
			return err
		}
		toast, err = m.submit(ctx, sess, ev, batch, ev.MessageID)
		return err

	case CallbackCancel:
		toast = m.localizer.T("callback.canceled")
		if ev.MessageID != "" {
			if err := m.frontend.EditMessage(ctx, ev.ChatID, ev.MessageID, m.localizer.T("msg.canceled"), [][]chat.Button{}); err != nil {
				m.logger.Debug("Failed to edit canceled message", zap.Error(err))
			}
		}
		sess.Scene = SceneIdle
		sess.Draft = nil
		sess.DraftArtist = ""
		sess.DraftAlbum = ""
		return m.store.SaveSession(ctx, sess)

	default:
		toast = m.localizer.T("callback.expired")
		return nil
	}
}

// enterAuth enters the authenticating scene: request a fresh grant token
// from the service (stale in-flight tokens are never reused) and send the
// grant link.
func (m *Machine) enterAuth(ctx context.Context, sess *UserSession, ev *chat.Event) error {
	token, err := m.client.GetToken(ctx)
	if err != nil {
		return err
	}

	sess.AuthToken = token
	sess.Scene = SceneAuth
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	_, err = m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("prompt.auth"),
		[][]chat.Button{{
			{Text: m.localizer.T("button.grant"), URL: m.client.AuthURL(token)},
			{Text: m.localizer.T("button.ok"), Data: CallbackAccessGranted},
		}})
	return err
}

// completeAuth exchanges the granted token for a session credential and
// re-dispatches the intent that triggered authentication.
func (m *Machine) completeAuth(ctx context.Context, sess *UserSession, ev *chat.Event) error {
	account, key, err := m.client.GetSession(ctx, sess.AuthToken)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			if ev.MessageID != "" {
				if editErr := m.frontend.EditMessage(ctx, ev.ChatID, ev.MessageID, m.localizer.T("auth.denied"), [][]chat.Button{}); editErr != nil {
					m.logger.Debug("Failed to edit auth message", zap.Error(editErr))
				}
			}
			// Restart the grant flow with a fresh token.
			return m.enterAuth(ctx, sess, ev)
		}
		return err
	}

	sess.AuthToken = ""
	sess.SessionKey = key
	sess.AccountName = account
	sess.Scene = SceneIdle
	pending := sess.PendingIntent
	sess.PendingIntent = ""
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	m.logger.Info("User authenticated",
		zap.String("userID", sess.ID),
		zap.String("account", account))

	if ev.MessageID != "" {
		if err := m.frontend.EditMessage(ctx, ev.ChatID, ev.MessageID, m.localizer.T("auth.granted", account), [][]chat.Button{}); err != nil {
			m.logger.Debug("Failed to edit auth message", zap.Error(err))
		}
	}

	if pending != "" {
		return m.beginCompose(ctx, sess, ev.ChatID, pending)
	}
	return nil
}

// enterEditAlbum switches to the album-edit scene and shows the editable
// track names.
func (m *Machine) enterEditAlbum(ctx context.Context, sess *UserSession, ev *chat.Event) error {
	sess.Scene = SceneEditAlbum
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	if ev.MessageID != "" {
		if err := m.frontend.EditMessage(ctx, ev.ChatID, ev.MessageID, m.localizer.T("prompt.edit_album"), [][]chat.Button{}); err != nil {
			m.logger.Debug("Failed to edit album preview", zap.Error(err))
		}
	}

	names := make([]string, 0, len(sess.Draft))
	for _, t := range sess.Draft {
		names = append(names, t.Name)
	}

	_, err := m.frontend.SendMessage(ctx, ev.ChatID, strings.Join(names, "\n"),
		[][]chat.Button{{{Text: m.localizer.T("button.cancel"), Data: CallbackCancel}}})
	return err
}

// resetToIdle abandons the current flow and restores the main menu.
func (m *Machine) resetToIdle(ctx context.Context, sess *UserSession, chatID string) error {
	sess.Scene = SceneIdle
	sess.Draft = nil
	sess.DraftArtist = ""
	sess.DraftAlbum = ""
	sess.PendingIntent = ""
	if err := m.store.SaveSession(ctx, sess); err != nil {
		return err
	}

	_, err := m.frontend.SendMessage(ctx, chatID, m.localizer.T("msg.canceled"), nil)
	return err
}
