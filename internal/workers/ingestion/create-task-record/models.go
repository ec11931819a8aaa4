// internal/workers/ingestion/create-task-record/models.go
package createtaskrecord

import "cobuilder/internal/models"

type Input struct {
	VentureID      string                       `json:"ventureId"`
	Classification *models.ClassificationResult `json:"classification"`
	ChannelID      string                       `json:"channelId"`
	MessageTs      string                       `json:"messageTs"`
	UserID         string                       `json:"userId"`
	UserName       string                       `json:"userName"`
}
