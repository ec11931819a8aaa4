// internal/workers/ingestion/ingest-message/models.go
package ingestmessage

import (
	"context"

	"cobuilder/internal/common/slack"
	"cobuilder/internal/models"
	classifymessage "cobuilder/internal/workers/ingestion/classify-message"
	createtaskrecord "cobuilder/internal/workers/ingestion/create-task-record"
	publishtaskevent "cobuilder/internal/workers/ingestion/publish-task-event"
)

const dedupKeyPrefix = "cobuilder:dedup:"

func dedupKey(channelID, messageTs string) string {
	return dedupKeyPrefix + channelID + ":" + messageTs
}

// Classifier is the classify-message stage.
type Classifier interface {
	Execute(ctx context.Context, input *classifymessage.Input) (*models.ClassificationResult, error)
}

// TaskStore is the create-task-record stage.
type TaskStore interface {
	Execute(ctx context.Context, input *createtaskrecord.Input) (*models.Task, error)
}

// EventSink is the publish-task-event stage.
type EventSink interface {
	Execute(ctx context.Context, task *models.Task) (*publishtaskevent.Result, error)
}

// Notifier is the notify-channel stage.
type Notifier interface {
	NotifyNotLinked(ctx context.Context, channelID, channelName, threadTS string) error
	NotifyClassificationFailed(ctx context.Context, channelID, threadTS string) error
	NotifySaveFailed(ctx context.Context, channelID, threadTS string) error
	NotifyDuplicate(ctx context.Context, channelID, threadTS string) error
	NotifyCreated(ctx context.Context, task *models.Task) error
}

// UserDirectory resolves Slack display names.
type UserDirectory interface {
	GetUserInfo(ctx context.Context, userID string) (*slack.UserInfo, error)
}

// Output is the variable set returned to the workflow engine.
type Output struct {
	Outcome string `json:"outcome"`
	TaskID  string `json:"taskId,omitempty"`
}
