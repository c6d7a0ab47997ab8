package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"scrobblerbot/internal/chat"
	"scrobblerbot/internal/cooldown"
	"scrobblerbot/internal/i18n"
	"scrobblerbot/internal/track"
)

// Machine is the conversation controller. It routes every inbound event by
// the session's current scene, drives the submission pipeline, and owns the
// fail-safe reset: an unexpected error anywhere surfaces a generic apology,
// alerts the operator, and returns the session to idle.
//
// The machine holds no per-user state of its own. Each event re-fetches the
// session document, so a turn never acts on stale authentication.
type Machine struct {
	config    *Config
	frontend  chat.Frontend
	client    SubmissionClient
	store     Store
	guard     cooldown.Guard
	notifier  Notifier
	metrics   *Metrics
	logger    *zap.Logger
	localizer *i18n.Localizer
	now       func() time.Time
}

// NewMachine creates the conversation state machine.
func NewMachine(
	config *Config,
	frontend chat.Frontend,
	client SubmissionClient,
	store Store,
	notifier Notifier,
	metrics *Metrics,
	logger *zap.Logger,
) *Machine {
	return &Machine{
		config:    config,
		frontend:  frontend,
		client:    client,
		store:     store,
		guard:     cooldown.New(time.Duration(config.App.CooldownSecs) * time.Second),
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		localizer: i18n.NewLocalizer(config.Telegram.Language),
		now:       time.Now,
	}
}

// Start initializes the chat frontend and begins processing events.
func (m *Machine) Start(ctx context.Context) error {
	m.logger.Info("Starting scene machine")

	if err := m.frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start chat frontend: %w", err)
	}

	return m.frontend.Listen(ctx, func(ev *chat.Event) {
		m.HandleEvent(ctx, ev)
	})
}

// Stop gracefully shuts down the machine.
func (m *Machine) Stop(_ context.Context) error {
	m.logger.Info("Stopping scene machine")
	return nil
}

// HandleEvent processes one inbound user event. The frontend serializes
// delivery per user, so no two events for the same session run concurrently.
func (m *Machine) HandleEvent(ctx context.Context, ev *chat.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic while handling event",
				zap.Any("panic", r),
				zap.String("userID", ev.UserID))
			m.failSafe(ctx, ev, fmt.Errorf("panic: %v", r))
		}
	}()

	m.countEvent(ev)

	if err := m.dispatch(ctx, ev); err != nil {
		m.failSafe(ctx, ev, err)
	}
}

// dispatch routes an event by kind and current scene. It returns an error
// only for internal faults; user-input problems are answered inline.
func (m *Machine) dispatch(ctx context.Context, ev *chat.Event) error {
	sess, err := m.store.Session(ctx, ev.UserID)
	if err != nil {
		return err
	}

	m.logger.Debug("Dispatching event",
		zap.String("userID", ev.UserID),
		zap.String("scene", string(sess.Scene)),
		zap.Int("kind", int(ev.Kind)))

	switch ev.Kind {
	case chat.EventCommand:
		return m.handleCommand(ctx, sess, ev)
	case chat.EventCallback:
		return m.handleCallback(ctx, sess, ev)
	case chat.EventText:
		return m.handleText(ctx, sess, ev)
	}

	return nil
}

// failSafe is the boundary for unclassified errors: log, alert the operator,
// apologize to the user, and force the session back to idle so the
// conversation is never left stuck in a broken scene.
func (m *Machine) failSafe(ctx context.Context, ev *chat.Event, err error) {
	m.logger.Error("Internal error, resetting session",
		zap.String("userID", ev.UserID),
		zap.Error(err))
	m.countError("machine")

	m.notifier.Notify(ctx, m.localizer.T("admin.alert", err.Error()))

	text := m.localizer.T("error.generic")
	if ev.Kind == chat.EventCallback && ev.MessageID != "" {
		if editErr := m.frontend.EditMessage(ctx, ev.ChatID, ev.MessageID, text, [][]chat.Button{}); editErr != nil {
			m.logger.Debug("Failed to edit message with generic error", zap.Error(editErr))
		}
	} else if ev.ChatID != "" {
		if _, sendErr := m.frontend.SendMessage(ctx, ev.ChatID, text, nil); sendErr != nil {
			m.logger.Debug("Failed to send generic error", zap.Error(sendErr))
		}
	}

	sess, sessErr := m.store.Session(ctx, ev.UserID)
	if sessErr != nil {
		m.logger.Warn("Failed to load session for reset", zap.Error(sessErr))
		return
	}
	sess.Scene = SceneIdle
	sess.Draft = nil
	sess.DraftArtist = ""
	sess.DraftAlbum = ""
	sess.PendingIntent = ""
	if saveErr := m.store.SaveSession(ctx, sess); saveErr != nil {
		m.logger.Warn("Failed to reset session", zap.Error(saveErr))
	}
}

// submit runs the submission pipeline for a batch: normalize, gate on the
// cooldown, make exactly one service call, and reconcile the outcome into a
// rendered message, a ledger record, and a scene transition.
//
// editID, when set, is the chat message to update in place (retries reuse
// the visible message). The returned toast is shown on the pressed button
// for callback-triggered submissions.
func (m *Machine) submit(ctx context.Context, sess *UserSession, ev *chat.Event, batch track.TrackBatch, editID string) (string, error) {
	normalized, err := track.Normalize(batch)
	if err != nil {
		if errors.Is(err, track.ErrInvalidTrack) {
			// User input problem: re-prompt, stay in the composing scene.
			m.logger.Debug("Batch failed validation", zap.Error(err))
			if _, sendErr := m.frontend.SendMessage(ctx, ev.ChatID, m.localizer.T("scrobble.invalid"), nil); sendErr != nil {
				return "", sendErr
			}
			return "", nil
		}
		return "", err
	}

	if !m.guard.CanSubmit(sess.LastScrobble, m.now()) {
		text := m.localizer.T("scrobble.cooldown", m.config.App.CooldownSecs)
		if ev.Kind == chat.EventCallback {
			return text, nil
		}
		_, sendErr := m.frontend.SendMessage(ctx, ev.ChatID, text, nil)
		return "", sendErr
	}

	outcome := m.client.Scrobble(ctx, sess.SessionKey, normalized)

	switch outcome.Kind {
	case OutcomeSuccess:
		m.countScrobble("success")
		msgID, renderErr := m.render(ctx, ev.ChatID, editID, m.localizer.T("scrobble.success"),
			[][]chat.Button{{{Text: m.localizer.T("button.repeat"), Data: CallbackRepeat}}})
		if renderErr != nil {
			return "", renderErr
		}
		if recErr := m.store.RecordSuccess(ctx, sess.ID, msgID, normalized, m.now()); recErr != nil {
			return "", recErr
		}
		return "", nil

	case OutcomeAuthRequired:
		m.countScrobble("auth_required")
		if _, renderErr := m.render(ctx, ev.ChatID, editID, m.localizer.T("auth.denied"), [][]chat.Button{}); renderErr != nil {
			return "", renderErr
		}
		return "", m.enterAuth(ctx, sess, ev)

	case OutcomeRetryable:
		m.countScrobble("retryable")
		msgID, renderErr := m.render(ctx, ev.ChatID, editID,
			m.localizer.T("scrobble.failed", outcome.Reason),
			[][]chat.Button{{
				{Text: m.localizer.T("button.retry"), Data: CallbackRetry},
				{Text: m.localizer.T("button.cancel"), Data: CallbackCancel},
			}})
		if renderErr != nil {
			return "", renderErr
		}
		if recErr := m.store.RecordFailure(ctx, msgID, outcome.Batch, m.now()); recErr != nil {
			return "", recErr
		}
		sess.Scene = SceneRetryConfirm
		return "", m.store.SaveSession(ctx, sess)
	}

	return "", nil
}

// render either edits an existing message or sends a new one, returning the
// ID of the message that now shows the outcome.
func (m *Machine) render(ctx context.Context, chatID, editID, text string, buttons [][]chat.Button) (string, error) {
	if editID != "" {
		if err := m.frontend.EditMessage(ctx, chatID, editID, text, buttons); err != nil {
			return "", err
		}
		return editID, nil
	}
	return m.frontend.SendMessage(ctx, chatID, text, buttons)
}

func (m *Machine) countEvent(ev *chat.Event) {
	if m.metrics == nil {
		return
	}
	kind := "text"
	switch ev.Kind {
	case chat.EventCommand:
		kind = "command"
	case chat.EventCallback:
		kind = "callback"
	case chat.EventText:
	}
	m.metrics.EventsTotal.WithLabelValues(kind).Inc()
}

func (m *Machine) countScrobble(status string) {
	if m.metrics == nil {
		return
	}
	m.metrics.ScrobblesTotal.WithLabelValues(status).Inc()
}

func (m *Machine) countError(component string) {
	if m.metrics == nil {
		return
	}
	m.metrics.ErrorsTotal.WithLabelValues(component).Inc()
}
