// internal/models/task.go
package models

import "time"

const TaskStatusOpen = "open"

type Task struct {
	ID              string    `json:"id"`
	VentureID       string    `json:"ventureId"`
	AssetNumber     int       `json:"assetNumber"`
	ChecklistItemID *string   `json:"checklistItemId"`
	Title           string    `json:"title"`
	Priority        Priority  `json:"priority"`
	Status          string    `json:"status"`
	SlackChannelID  string    `json:"slackChannelId"`
	SlackMessageTs  string    `json:"slackMessageTs"`
	SlackUserID     *string   `json:"slackUserId"`
	SlackUserName   string    `json:"slackUserName"`
	AIConfidence    int       `json:"aiConfidence"`
	AIReasoning     string    `json:"aiReasoning"`
	CreatedAt       time.Time `json:"createdAt"`
}
