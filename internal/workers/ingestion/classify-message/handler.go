// internal/workers/ingestion/classify-message/handler.go
package classifymessage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/common/metrics"
	"cobuilder/internal/framework"
	"cobuilder/internal/models"
)

const (
	TaskType = "classify-message"
)

var (
	ErrClassificationFailed = errors.New("CLASSIFICATION_FAILED")
	ErrClassificationParse  = errors.New("CLASSIFICATION_PARSE_FAILED")
	ErrEmptyMessage         = errors.New("EMPTY_MESSAGE")
)

// Completer sends one system+user prompt to a completion endpoint.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type Handler struct {
	config       *Config
	completer    Completer
	framework    *framework.Framework
	systemPrompt string
	logger       logger.Logger
}

// NewHandler renders the system prompt once from ref; the handler holds no
// other state and is safe for concurrent use.
func NewHandler(config *Config, completer Completer, fw *framework.Framework, ref framework.Reference, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		completer:    completer,
		framework:    fw,
		systemPrompt: buildSystemPrompt(ref),
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.ClassificationResult, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ErrEmptyMessage
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	start := time.Now()
	content, err := h.completer.Complete(ctx, h.systemPrompt, buildUserPrompt(input))
	metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	result, err := parseCompletion(content, input.Text, h.framework, h.config.MaxTitleLength)
	if err != nil {
		if !h.config.FallbackOnParseError {
			return nil, fmt.Errorf("%w: %v", ErrClassificationParse, err)
		}
		h.logger.Warn("unparseable completion, using fallback classification", map[string]interface{}{
			"error": err.Error(),
		})
		result = fallbackResult(input.Text, h.config.MaxTitleLength)
	}

	metrics.ClassificationConfidence.Observe(float64(result.Confidence))
	h.logger.Info("message classified", map[string]interface{}{
		"assetNumber": result.AssetNumber,
		"confidence":  result.Confidence,
		"priority":    string(result.Priority),
		"fallback":    result.Fallback,
		"durationMs":  time.Since(start).Milliseconds(),
	})
	return result, nil
}
