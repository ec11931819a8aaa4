// internal/workers/ingestion/publish-task-event/models.go
package publishtaskevent

import (
	"time"

	"cobuilder/internal/models"
)

const EventTaskCreated = "task.created"

// TaskEvent is the SNS message body for a stored task.
type TaskEvent struct {
	EventType  string       `json:"eventType"`
	OccurredAt time.Time    `json:"occurredAt"`
	Source     string       `json:"source"`
	Task       *models.Task `json:"task"`
}

// searchDocument is what gets indexed for task search.
type searchDocument struct {
	VentureID       string    `json:"ventureId"`
	AssetNumber     int       `json:"assetNumber"`
	AssetTitle      string    `json:"assetTitle,omitempty"`
	Stage           int       `json:"stage,omitempty"`
	ChecklistItemID string    `json:"checklistItemId,omitempty"`
	Title           string    `json:"title"`
	Priority        string    `json:"priority"`
	Status          string    `json:"status"`
	SlackChannelID  string    `json:"slackChannelId"`
	SlackUserName   string    `json:"slackUserName,omitempty"`
	AIConfidence    int       `json:"aiConfidence"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Result reports which sinks accepted the task. Errors are never fatal.
type Result struct {
	MessageID string
	Published bool
	Indexed   bool
}
