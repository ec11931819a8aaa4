// internal/models/mapping.go
package models

import "time"

// ChannelVentureMapping links a Slack channel to a venture. Administrators
// manage these rows elsewhere; ingestion only reads them.
type ChannelVentureMapping struct {
	ID               string    `json:"id"`
	SlackChannelID   string    `json:"slackChannelId"`
	SlackChannelName string    `json:"slackChannelName"`
	VentureID        string    `json:"ventureId"`
	CreatedAt        time.Time `json:"createdAt"`
}
