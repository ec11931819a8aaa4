// internal/workers/ingestion/classify-message/config.go
package classifymessage

import (
	"time"

	"cobuilder/internal/common/config"
)

type Config struct {
	Timeout              time.Duration
	MaxTitleLength       int
	FallbackOnParseError bool
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:        60 * time.Second,
		MaxTitleLength: 100,
	}
	if cfg != nil {
		if cfg.LLM.Timeout > 0 {
			c.Timeout = config.GetDuration(cfg.LLM.Timeout)
		}
		c.FallbackOnParseError = cfg.LLM.FallbackOnParseError
	}
	return c
}
