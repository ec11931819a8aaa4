// internal/models/ingest_job.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// IngestJob carries everything the background pipeline needs once the
// webhook has been acknowledged. It is also the variable payload of the
// Camunda ingestion process.
type IngestJob struct {
	JobID       string                 `json:"jobId"`
	ChannelID   string                 `json:"channelId"`
	ChannelName string                 `json:"channelName"`
	MessageTs   string                 `json:"messageTs"`
	MessageText string                 `json:"messageText"`
	AuthorID    string                 `json:"authorId"`
	ActorID     string                 `json:"actorId"`
	ActorName   string                 `json:"actorName"`
	ResponseURL string                 `json:"responseUrl,omitempty"`
	Mapping     *ChannelVentureMapping `json:"mapping"`
	ReceivedAt  time.Time              `json:"receivedAt"`
}

// NewIngestJob builds a job from a message action. mapping is nil for an
// unlinked channel.
func NewIngestJob(p *InteractionPayload, mapping *ChannelVentureMapping, now time.Time) IngestJob {
	return IngestJob{
		JobID:       uuid.NewString(),
		ChannelID:   p.Channel.ID,
		ChannelName: p.Channel.Name,
		MessageTs:   p.Message.TS,
		MessageText: p.Message.Text,
		AuthorID:    p.AuthorID(),
		ActorID:     p.User.ID,
		ActorName:   p.User.Name,
		ResponseURL: p.ResponseURL,
		Mapping:     mapping,
		ReceivedAt:  now.UTC(),
	}
}
