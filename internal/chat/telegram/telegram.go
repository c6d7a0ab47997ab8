// Package telegram provides Telegram Bot API integration using go-telegram/bot library.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"scrobblerbot/internal/chat"
	"scrobblerbot/internal/i18n"
)

// Config holds Telegram-specific configuration
type Config struct {
	BotToken       string
	WebhookEnabled bool   // Receive updates via webhook instead of long polling
	WebhookURL     string // Public URL registered with the Bot API in webhook mode
	Language       string // Bot language for user-facing messages
}

// UpdateDedup filters redelivered updates. Webhook delivery is
// at-least-once, so a processed update ID must not be dispatched twice.
type UpdateDedup interface {
	Has(id string) bool
	Add(id string)
}

// Frontend implements the chat.Frontend interface for Telegram
type Frontend struct {
	config    *Config
	logger    *zap.Logger
	bot       *bot.Bot
	localizer *i18n.Localizer
	dedup     UpdateDedup

	eventHandler func(*chat.Event)
}

// NewFrontend creates a new Telegram frontend
func NewFrontend(config *Config, dedup UpdateDedup, logger *zap.Logger) *Frontend {
	language := config.Language
	if language == "" {
		language = i18n.DefaultLanguage
	}

	return &Frontend{
		config:    config,
		logger:    logger,
		localizer: i18n.NewLocalizer(language),
		dedup:     dedup,
	}
}

// Start initializes the Telegram bot
func (f *Frontend) Start(ctx context.Context) error {
	opts := []bot.Option{
		bot.WithDefaultHandler(f.handleUpdate),
		// The core relies on per-user event serialization; handlers must not
		// run concurrently for updates of the same user.
		bot.WithNotAsyncHandlers(),
	}

	b, err := bot.New(f.config.BotToken, opts...)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	f.bot = b

	if f.config.WebhookEnabled {
		if _, err := b.SetWebhook(ctx, &bot.SetWebhookParams{URL: f.config.WebhookURL}); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		f.logger.Info("Telegram webhook registered", zap.String("url", f.config.WebhookURL))
	}

	f.logger.Info("Telegram frontend started successfully")
	return nil
}

// Listen starts receiving updates and calls the handler for each event
func (f *Frontend) Listen(ctx context.Context, handler func(*chat.Event)) error {
	f.eventHandler = handler

	if f.config.WebhookEnabled {
		f.bot.StartWebhook(ctx)
		return nil
	}

	f.bot.Start(ctx)
	return nil
}

// WebhookHandler exposes the bot's webhook endpoint for the HTTP server,
// or nil in polling mode.
func (f *Frontend) WebhookHandler() http.Handler {
	if !f.config.WebhookEnabled || f.bot == nil {
		return nil
	}
	return f.bot.WebhookHandler()
}

// SendMessage sends a new message. With no inline buttons the main menu
// reply keyboard is attached so the composer commands stay reachable.
func (f *Frontend) SendMessage(ctx context.Context, chatID, text string, buttons [][]chat.Button) (string, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid chat ID: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID: chatIDInt,
		Text:   text,
	}

	if buttons == nil {
		params.ReplyMarkup = f.mainMenuKeyboard()
	} else {
		params.ReplyMarkup = toInlineKeyboard(buttons)
	}

	disabled := true
	params.LinkPreviewOptions = &models.LinkPreviewOptions{
		IsDisabled: &disabled,
	}

	msg, err := f.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return strconv.Itoa(msg.ID), nil
}

// EditMessage replaces an existing message's text and inline buttons
func (f *Frontend) EditMessage(ctx context.Context, chatID, messageID, text string, buttons [][]chat.Button) error {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	params := &bot.EditMessageTextParams{
		ChatID:    chatIDInt,
		MessageID: msgID,
		Text:      text,
	}
	if buttons != nil {
		params.ReplyMarkup = toInlineKeyboard(buttons)
	}

	if _, err := f.bot.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}

	return nil
}

// AnswerCallback acknowledges an inline-button press
func (f *Frontend) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if _, err := f.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	}); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	return nil
}

// SendDirectMessage sends a direct message to a user and returns the message ID
func (f *Frontend) SendDirectMessage(ctx context.Context, userID, text string) (string, error) {
	userIDInt, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid user ID: %w", err)
	}

	msg, err := f.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userIDInt,
		Text:   text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send direct message: %w", err)
	}

	return strconv.Itoa(msg.ID), nil
}

// handleUpdate converts incoming Telegram updates into chat events
func (f *Frontend) handleUpdate(_ context.Context, _ *bot.Bot, update *models.Update) {
	if f.eventHandler == nil {
		return
	}

	updateID := strconv.FormatInt(update.ID, 10)
	if f.dedup != nil {
		if f.dedup.Has(updateID) {
			f.logger.Debug("Skipping redelivered update", zap.String("updateID", updateID))
			return
		}
		f.dedup.Add(updateID)
	}

	switch {
	case update.Message != nil:
		f.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		f.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleMessage processes incoming messages
func (f *Frontend) handleMessage(msg *models.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	event := &chat.Event{
		UserID:    strconv.FormatInt(msg.From.ID, 10),
		ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
		MessageID: strconv.Itoa(msg.ID),
		Text:      msg.Text,
	}

	if command, ok := f.commandFor(msg.Text); ok {
		event.Kind = chat.EventCommand
		event.Command = command
	} else {
		event.Kind = chat.EventText
	}

	f.eventHandler(event)
}

// handleCallbackQuery processes inline-button presses
func (f *Frontend) handleCallbackQuery(query *models.CallbackQuery) {
	event := &chat.Event{
		Kind:         chat.EventCallback,
		UserID:       strconv.FormatInt(query.From.ID, 10),
		CallbackID:   query.ID,
		CallbackData: query.Data,
	}

	if query.Message.Message != nil {
		event.ChatID = strconv.FormatInt(query.Message.Message.Chat.ID, 10)
		event.MessageID = strconv.Itoa(query.Message.Message.ID)
	}

	f.eventHandler(event)
}

// commandFor maps slash commands and main menu button texts to command names
func (f *Frontend) commandFor(text string) (string, bool) {
	switch text {
	case f.localizer.T("menu.track"):
		return "track", true
	case f.localizer.T("menu.album"):
		return "album", true
	case f.localizer.T("menu.tracklist"):
		return "tracklist", true
	}

	if strings.HasPrefix(text, "/") {
		command := strings.TrimPrefix(strings.Fields(text)[0], "/")
		if idx := strings.Index(command, "@"); idx >= 0 {
			command = command[:idx]
		}
		return command, true
	}

	return "", false
}

// mainMenuKeyboard builds the persistent reply keyboard with the three
// composer commands
func (f *Frontend) mainMenuKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{
				{Text: f.localizer.T("menu.track")},
				{Text: f.localizer.T("menu.album")},
				{Text: f.localizer.T("menu.tracklist")},
			},
		},
		ResizeKeyboard: true,
	}
}

// toInlineKeyboard converts chat button rows into Telegram inline keyboard markup
func toInlineKeyboard(buttons [][]chat.Button) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		kbRow := make([]models.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			kbRow = append(kbRow, models.InlineKeyboardButton{
				Text:         b.Text,
				URL:          b.URL,
				CallbackData: b.Data,
			})
		}
		keyboard = append(keyboard, kbRow)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
