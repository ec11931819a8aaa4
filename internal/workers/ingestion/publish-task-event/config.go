// internal/workers/ingestion/publish-task-event/config.go
package publishtaskevent

import (
	"time"

	"cobuilder/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	EventType   string
	SearchIndex string
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:     5 * time.Second,
		EventType:   EventTaskCreated,
		SearchIndex: "cobuilder-tasks",
	}
	if cfg != nil && cfg.Search.Index != "" {
		c.SearchIndex = cfg.Search.Index
	}
	return c
}
