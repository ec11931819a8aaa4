// internal/workers/ingestion/publish-task-event/handler.go
package publishtaskevent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/framework"
	"cobuilder/internal/models"
)

const (
	TaskType = "publish-task-event"
)

var (
	ErrEventPublishFailed = errors.New("EVENT_PUBLISH_FAILED")
)

// EventPublisher fans task events out to subscribers (SNS).
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload interface{}) (string, error)
}

// Indexer stores a searchable copy of the task (Elasticsearch).
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

type Handler struct {
	config    *Config
	publisher EventPublisher
	indexer   Indexer
	framework *framework.Framework
	now       func() time.Time
	logger    logger.Logger
}

// NewHandler builds the publisher. Either sink may be nil when disabled.
func NewHandler(config *Config, publisher EventPublisher, indexer Indexer, fw *framework.Framework, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		publisher: publisher,
		indexer:   indexer,
		framework: fw,
		now:       time.Now,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute sends the task to every configured sink. The returned error joins
// the sink failures, each wrapped in ErrEventPublishFailed; callers log it
// and carry on.
func (h *Handler) Execute(ctx context.Context, task *models.Task) (*Result, error) {
	result := &Result{}
	if task == nil {
		return result, nil
	}

	var errs []error
	if h.publisher != nil {
		id, err := h.publish(ctx, task)
		if err != nil {
			errs = append(errs, err)
		} else {
			result.MessageID = id
			result.Published = true
		}
	}
	if h.indexer != nil {
		if err := h.index(ctx, task); err != nil {
			errs = append(errs, err)
		} else {
			result.Indexed = true
		}
	}

	if err := errors.Join(errs...); err != nil {
		h.logger.Warn("task event delivery incomplete", map[string]interface{}{
			"taskId": task.ID,
			"error":  err.Error(),
		})
		return result, err
	}
	return result, nil
}

func (h *Handler) publish(ctx context.Context, task *models.Task) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	event := TaskEvent{
		EventType:  h.config.EventType,
		OccurredAt: h.now().UTC(),
		Source:     "slack",
		Task:       task,
	}
	id, err := h.publisher.PublishEvent(ctx, event.EventType, event)
	if err != nil {
		return "", fmt.Errorf("%w: sns: %v", ErrEventPublishFailed, err)
	}

	h.logger.Debug("task event published", map[string]interface{}{
		"taskId":    task.ID,
		"messageId": id,
	})
	return id, nil
}

func (h *Handler) index(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	if err := h.indexer.IndexDocument(ctx, h.config.SearchIndex, task.ID, h.document(task)); err != nil {
		return fmt.Errorf("%w: elasticsearch: %v", ErrEventPublishFailed, err)
	}
	return nil
}

func (h *Handler) document(task *models.Task) searchDocument {
	doc := searchDocument{
		VentureID:      task.VentureID,
		AssetNumber:    task.AssetNumber,
		Title:          task.Title,
		Priority:       string(task.Priority),
		Status:         task.Status,
		SlackChannelID: task.SlackChannelID,
		SlackUserName:  task.SlackUserName,
		AIConfidence:   task.AIConfidence,
		CreatedAt:      task.CreatedAt,
	}
	if task.ChecklistItemID != nil {
		doc.ChecklistItemID = *task.ChecklistItemID
	}
	if h.framework != nil {
		if asset, ok := h.framework.Asset(task.AssetNumber); ok {
			doc.AssetTitle = asset.Title
		}
		doc.Stage = h.framework.StageOf(task.AssetNumber)
	}
	return doc
}
