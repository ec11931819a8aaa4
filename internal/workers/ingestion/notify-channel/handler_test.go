// internal/workers/ingestion/notify-channel/handler_test.go
package notifychannel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/framework"
	"cobuilder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type postedMessage struct {
	channelID string
	text      string
	threadTS  string
}

type fakePoster struct {
	posted []postedMessage
	err    error
}

func (f *fakePoster) PostMessage(_ context.Context, channelID, text, threadTS string) error {
	f.posted = append(f.posted, postedMessage{channelID: channelID, text: text, threadTS: threadTS})
	return f.err
}

type fakeMailer struct {
	to      []string
	subject string
	body    string
	err     error
}

func (f *fakeMailer) SendText(_ context.Context, to []string, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func createTestConfig() *Config {
	return &Config{
		Timeout:      time.Second,
		BaseURL:      "https://cobuilder.example.com",
		AdminLinkURL: "https://cobuilder.example.com/admin/slack",
	}
}

func createTestHandler(t *testing.T, poster Poster, mailer Mailer, config *Config) *Handler {
	t.Helper()
	if config == nil {
		config = createTestConfig()
	}
	fw, err := framework.Load()
	require.NoError(t, err)
	return NewHandler(config, poster, mailer, fw, logger.NewTestLogger(t))
}

func createTask(confidence int) *models.Task {
	item := "4-1"
	return &models.Task{
		ID:              "task-1",
		VentureID:       "venture-1",
		AssetNumber:     4,
		ChecklistItemID: &item,
		Title:           "Write the interview script",
		Priority:        models.PriorityHigh,
		Status:          models.TaskStatusOpen,
		SlackChannelID:  "C123",
		SlackMessageTs:  "1700000000.000100",
		AIConfidence:    confidence,
	}
}

// ==========================
// Message Builders
// ==========================

func TestConfidenceEmoji(t *testing.T) {
	tests := []struct {
		confidence int
		want       string
	}{
		{100, ":large_green_circle:"},
		{80, ":large_green_circle:"},
		{79, ":large_yellow_circle:"},
		{50, ":large_yellow_circle:"},
		{49, ":red_circle:"},
		{0, ":red_circle:"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceEmoji(tt.confidence), "confidence %d", tt.confidence)
	}
}

func TestTaskLink(t *testing.T) {
	assert.Equal(t,
		"https://cobuilder.example.com/ventures/venture-1?asset=4",
		TaskLink("https://cobuilder.example.com/", "venture-1", 4))
}

func TestCreatedMessage(t *testing.T) {
	msg := CreatedMessage(createTask(87), "Interview Plan", "https://cobuilder.example.com")

	assert.Contains(t, msg, "*Write the interview script*")
	assert.Contains(t, msg, "Asset 4: Interview Plan")
	assert.Contains(t, msg, "Priority: high")
	assert.Contains(t, msg, ":large_green_circle: 87%")
	assert.Contains(t, msg, "Checklist: 4-1")
	assert.Contains(t, msg, "<https://cobuilder.example.com/ventures/venture-1?asset=4|View in Co-Builder>")
}

func TestCreatedMessage_WithoutBaseURL(t *testing.T) {
	task := createTask(30)
	task.ChecklistItemID = nil

	msg := CreatedMessage(task, "", "")
	assert.Contains(t, msg, ":red_circle: 30%")
	assert.NotContains(t, msg, "View in Co-Builder")
	assert.NotContains(t, msg, "Checklist")
}

func TestNotLinkedMessage(t *testing.T) {
	msg := NotLinkedMessage("https://cobuilder.example.com/admin/slack")
	assert.Contains(t, msg, "isn't linked to a Co-Builder venture yet")
	assert.Contains(t, msg, "https://cobuilder.example.com/admin/slack")

	assert.Contains(t, NotLinkedMessage(""), "isn't linked to a Co-Builder venture yet")
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_NotifyCreated_RepliesInThread(t *testing.T) {
	poster := &fakePoster{}
	handler := createTestHandler(t, poster, nil, nil)

	require.NoError(t, handler.NotifyCreated(context.Background(), createTask(65)))

	require.Len(t, poster.posted, 1)
	assert.Equal(t, "C123", poster.posted[0].channelID)
	assert.Equal(t, "1700000000.000100", poster.posted[0].threadTS)
	assert.Contains(t, poster.posted[0].text, "Asset 4: Interview Plan")
	assert.Contains(t, poster.posted[0].text, ":large_yellow_circle: 65%")
}

func TestHandler_FailureNotices(t *testing.T) {
	tests := []struct {
		name   string
		notify func(h *Handler) error
		want   string
	}{
		{"classification failed", func(h *Handler) error {
			return h.NotifyClassificationFailed(context.Background(), "C1", "1.0")
		}, "couldn't classify"},
		{"save failed", func(h *Handler) error {
			return h.NotifySaveFailed(context.Background(), "C1", "1.0")
		}, "couldn't save the task"},
		{"duplicate", func(h *Handler) error {
			return h.NotifyDuplicate(context.Background(), "C1", "1.0")
		}, "already being processed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poster := &fakePoster{}
			require.NoError(t, tt.notify(createTestHandler(t, poster, nil, nil)))
			require.Len(t, poster.posted, 1)
			assert.Contains(t, poster.posted[0].text, tt.want)
			assert.Equal(t, "1.0", poster.posted[0].threadTS)
		})
	}
}

func TestHandler_NotifyNotLinked_AlertsAdmins(t *testing.T) {
	poster := &fakePoster{}
	mailer := &fakeMailer{}
	config := createTestConfig()
	config.AdminEmails = []string{"ops@example.com"}

	handler := createTestHandler(t, poster, mailer, config)
	require.NoError(t, handler.NotifyNotLinked(context.Background(), "C999", "random", "1.0"))

	require.Len(t, poster.posted, 1)
	assert.Contains(t, poster.posted[0].text, "isn't linked to a Co-Builder venture yet")
	assert.Equal(t, []string{"ops@example.com"}, mailer.to)
	assert.Contains(t, mailer.subject, "#random")
	assert.True(t, strings.Contains(mailer.body, "https://cobuilder.example.com/admin/slack"))
}

func TestHandler_NotifyNotLinked_MailFailureIsNotReturned(t *testing.T) {
	config := createTestConfig()
	config.AdminEmails = []string{"ops@example.com"}
	handler := createTestHandler(t, &fakePoster{}, &fakeMailer{err: errors.New("ses down")}, config)

	assert.NoError(t, handler.NotifyNotLinked(context.Background(), "C999", "", "1.0"))
}

func TestHandler_NotifyNotLinked_NoAdminsNoMail(t *testing.T) {
	mailer := &fakeMailer{}
	handler := createTestHandler(t, &fakePoster{}, mailer, nil)

	require.NoError(t, handler.NotifyNotLinked(context.Background(), "C999", "random", "1.0"))
	assert.Nil(t, mailer.to)
}

func TestHandler_Post_Error(t *testing.T) {
	handler := createTestHandler(t, &fakePoster{err: errors.New("channel_not_found")}, nil, nil)

	err := handler.Post(context.Background(), "C1", "1.0", "hello")
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
	assert.Contains(t, err.Error(), "channel_not_found")
}
