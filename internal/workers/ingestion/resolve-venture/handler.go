// internal/workers/ingestion/resolve-venture/handler.go
package resolveventure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "resolve-venture"
)

var (
	ErrChannelLookupFailed = errors.New("CHANNEL_LOOKUP_FAILED")
	ErrInvalidChannelID    = errors.New("INVALID_CHANNEL_ID")
)

const selectMappingQuery = `SELECT id, slack_channel_id, slack_channel_name, venture_id, created_at
FROM slack_channel_mappings
WHERE slack_channel_id = $1
ORDER BY created_at
LIMIT 1`

// Handler resolves a Slack channel to its venture mapping. Lookups go
// through Redis first; Redis failures fall through to Postgres.
type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute returns the first mapping for channelID, or nil when the channel
// is not linked to any venture.
func (h *Handler) Execute(ctx context.Context, channelID string) (*models.ChannelVentureMapping, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, ErrInvalidChannelID
	}

	if mapping, hit := h.fromCache(ctx, channelID); hit {
		return mapping, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var m models.ChannelVentureMapping
	var channelName sql.NullString
	err := h.db.QueryRowContext(ctx, selectMappingQuery, channelID).Scan(
		&m.ID, &m.SlackChannelID, &channelName, &m.VentureID, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.store(ctx, channelID, negativeMarker, h.config.NegativeTTL)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrChannelLookupFailed, err)
	}
	m.SlackChannelName = channelName.String

	if data, err := json.Marshal(&m); err == nil {
		h.store(ctx, channelID, data, h.config.MappingTTL)
	}

	return &m, nil
}

func (h *Handler) fromCache(ctx context.Context, channelID string) (*models.ChannelVentureMapping, bool) {
	if h.redis == nil {
		return nil, false
	}

	val, err := h.redis.Get(ctx, cacheKey(channelID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("mapping cache read failed, using database", map[string]interface{}{
				"channelId": channelID,
				"error":     err.Error(),
			})
		}
		return nil, false
	}

	if val == negativeMarker {
		return nil, true
	}

	var m models.ChannelVentureMapping
	if err := json.Unmarshal([]byte(val), &m); err != nil {
		h.logger.Warn("discarding corrupt mapping cache entry", map[string]interface{}{
			"channelId": channelID,
		})
		return nil, false
	}
	return &m, true
}

func (h *Handler) store(ctx context.Context, channelID string, value interface{}, ttl time.Duration) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Set(ctx, cacheKey(channelID), value, ttl).Err(); err != nil {
		h.logger.Warn("mapping cache write failed", map[string]interface{}{
			"channelId": channelID,
			"error":     err.Error(),
		})
	}
}
