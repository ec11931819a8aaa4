// internal/workers/ingestion/notify-channel/handler.go
package notifychannel

import (
	"context"
	"errors"
	"fmt"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/framework"
	"cobuilder/internal/models"
)

const (
	TaskType = "notify-channel"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
)

// Poster posts a threaded reply.
type Poster interface {
	PostMessage(ctx context.Context, channelID, text, threadTS string) error
}

// Mailer sends the optional admin alert for unlinked channels.
type Mailer interface {
	SendText(ctx context.Context, to []string, subject, body string) error
}

type Handler struct {
	config    *Config
	poster    Poster
	mailer    Mailer
	framework *framework.Framework
	logger    logger.Logger
}

// NewHandler builds the responder. mailer may be nil.
func NewHandler(config *Config, poster Poster, mailer Mailer, fw *framework.Framework, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		poster:    poster,
		mailer:    mailer,
		framework: fw,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Post replies in the thread of threadTS.
func (h *Handler) Post(ctx context.Context, channelID, threadTS, text string) error {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	if err := h.poster.PostMessage(ctx, channelID, text, threadTS); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}
	return nil
}

// NotifyNotLinked tells the channel it has no venture and alerts admins by
// mail when configured. A mail failure is logged, never returned.
func (h *Handler) NotifyNotLinked(ctx context.Context, channelID, channelName, threadTS string) error {
	err := h.Post(ctx, channelID, threadTS, NotLinkedMessage(h.config.AdminLinkURL))
	h.alertAdmins(ctx, channelID, channelName)
	return err
}

func (h *Handler) NotifyClassificationFailed(ctx context.Context, channelID, threadTS string) error {
	return h.Post(ctx, channelID, threadTS, ClassificationFailedMessage())
}

func (h *Handler) NotifySaveFailed(ctx context.Context, channelID, threadTS string) error {
	return h.Post(ctx, channelID, threadTS, SaveFailedMessage())
}

func (h *Handler) NotifyDuplicate(ctx context.Context, channelID, threadTS string) error {
	return h.Post(ctx, channelID, threadTS, DuplicateMessage())
}

// NotifyCreated confirms a stored task in its originating thread.
func (h *Handler) NotifyCreated(ctx context.Context, task *models.Task) error {
	assetTitle := ""
	if h.framework != nil {
		if asset, ok := h.framework.Asset(task.AssetNumber); ok {
			assetTitle = asset.Title
		}
	}
	return h.Post(ctx, task.SlackChannelID, task.SlackMessageTs, CreatedMessage(task, assetTitle, h.config.BaseURL))
}

func (h *Handler) alertAdmins(ctx context.Context, channelID, channelName string) {
	if h.mailer == nil || len(h.config.AdminEmails) == 0 {
		return
	}

	name := channelName
	if name == "" {
		name = channelID
	}
	subject := fmt.Sprintf("Slack channel #%s is not linked to a venture", name)
	body := fmt.Sprintf(
		"Someone tried to create a Co-Builder task from Slack channel #%s (%s), which is not linked to any venture.\n\nLink it here: %s\n",
		name, channelID, h.config.AdminLinkURL,
	)

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	if err := h.mailer.SendText(ctx, h.config.AdminEmails, subject, body); err != nil {
		h.logger.Warn("admin alert email failed", map[string]interface{}{
			"channelId": channelID,
			"error":     err.Error(),
		})
	}
}
