// internal/workers/ingestion/resolve-venture/config.go
package resolveventure

import (
	"time"

	"cobuilder/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	MappingTTL  time.Duration
	NegativeTTL time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:     2 * time.Second,
		MappingTTL:  5 * time.Minute,
		NegativeTTL: time.Minute,
	}
	if cfg != nil && cfg.Cache.MappingTTL > 0 {
		c.MappingTTL = config.GetSeconds(cfg.Cache.MappingTTL)
	}
	return c
}
