// internal/workers/ingestion/create-task-record/handler.go
package createtaskrecord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/models"

	"github.com/google/uuid"
)

const (
	TaskType = "create-task-record"
)

var (
	ErrTaskPersistFailed = errors.New("TASK_PERSIST_FAILED")
	ErrDuplicateTask     = errors.New("DUPLICATE_TASK")
	ErrInvalidInput      = errors.New("INVALID_INPUT")
)

// A second insert for the same Slack message hits the unique constraint and
// returns no row.
const insertTaskQuery = `INSERT INTO tasks (
	id, venture_id, asset_number, checklist_item_id, title, priority, status,
	slack_channel_id, slack_message_ts, slack_user_id, slack_user_name,
	ai_confidence, ai_reasoning
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (slack_channel_id, slack_message_ts) DO NOTHING
RETURNING id, created_at`

type Handler struct {
	config *Config
	db     *sql.DB
	newID  func() string
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		newID:  uuid.NewString,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute inserts one open task built from the classification and the
// originating message.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.Task, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	c := input.Classification
	task := &models.Task{
		ID:              h.newID(),
		VentureID:       input.VentureID,
		AssetNumber:     c.AssetNumber,
		ChecklistItemID: c.ChecklistItemID,
		Title:           c.Title,
		Priority:        c.Priority,
		Status:          models.TaskStatusOpen,
		SlackChannelID:  input.ChannelID,
		SlackMessageTs:  input.MessageTs,
		SlackUserName:   input.UserName,
		AIConfidence:    c.Confidence,
		AIReasoning:     c.Reasoning,
	}
	if input.UserID != "" {
		userID := input.UserID
		task.SlackUserID = &userID
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	err := h.db.QueryRowContext(ctx, insertTaskQuery,
		task.ID,
		task.VentureID,
		task.AssetNumber,
		nullString(task.ChecklistItemID),
		task.Title,
		string(task.Priority),
		task.Status,
		task.SlackChannelID,
		task.SlackMessageTs,
		nullString(task.SlackUserID),
		task.SlackUserName,
		task.AIConfidence,
		task.AIReasoning,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: channel %s message %s", ErrDuplicateTask, input.ChannelID, input.MessageTs)
		}
		return nil, fmt.Errorf("%w: %v", ErrTaskPersistFailed, err)
	}

	h.logger.Info("task created", map[string]interface{}{
		"taskId":      task.ID,
		"ventureId":   task.VentureID,
		"assetNumber": task.AssetNumber,
		"channelId":   task.SlackChannelID,
		"messageTs":   task.SlackMessageTs,
	})
	return task, nil
}

func validateInput(input *Input) error {
	switch {
	case input == nil || input.Classification == nil:
		return fmt.Errorf("%w: classification is required", ErrInvalidInput)
	case strings.TrimSpace(input.VentureID) == "":
		return fmt.Errorf("%w: ventureId is required", ErrInvalidInput)
	case input.ChannelID == "" || input.MessageTs == "":
		return fmt.Errorf("%w: channelId and messageTs are required", ErrInvalidInput)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
