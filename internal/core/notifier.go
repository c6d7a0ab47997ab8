package core

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"scrobblerbot/internal/chat"
)

// AdminNotifier delivers operator alerts as direct chat messages. Delivery is
// best effort: a failed alert is logged and dropped, never bubbled back into
// the conversation that triggered it.
type AdminNotifier struct {
	frontend    chat.Frontend
	adminChatID int64
	logger      *zap.Logger
}

// NewAdminNotifier creates a notifier that messages the given admin chat.
// An adminChatID of 0 disables alerting.
func NewAdminNotifier(frontend chat.Frontend, adminChatID int64, logger *zap.Logger) *AdminNotifier {
	return &AdminNotifier{
		frontend:    frontend,
		adminChatID: adminChatID,
		logger:      logger,
	}
}

// Notify sends an alert to the admin chat.
func (n *AdminNotifier) Notify(ctx context.Context, text string) {
	if n.adminChatID == 0 {
		return
	}

	if _, err := n.frontend.SendDirectMessage(ctx, strconv.FormatInt(n.adminChatID, 10), text); err != nil {
		n.logger.Warn("Failed to deliver admin alert", zap.Error(err))
	}
}
