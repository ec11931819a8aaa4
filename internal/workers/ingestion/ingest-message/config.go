// internal/workers/ingestion/ingest-message/config.go
package ingestmessage

import (
	"time"

	"cobuilder/internal/common/config"
)

type Config struct {
	DedupTTL        time.Duration
	NotifyTimeout   time.Duration
	CompleteTimeout time.Duration
	ReleaseTimeout  time.Duration
}

const defaultReleaseTimeout = 2 * time.Second

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		DedupTTL:        24 * time.Hour,
		NotifyTimeout:   10 * time.Second,
		CompleteTimeout: 10 * time.Second,
		ReleaseTimeout:  defaultReleaseTimeout,
	}
	if cfg != nil && cfg.Cache.DedupTTL > 0 {
		c.DedupTTL = config.GetSeconds(cfg.Cache.DedupTTL)
	}
	return c
}
