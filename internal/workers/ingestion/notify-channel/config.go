// internal/workers/ingestion/notify-channel/config.go
package notifychannel

import (
	"strings"
	"time"

	"cobuilder/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	BaseURL      string
	AdminLinkURL string
	AdminEmails  []string
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{Timeout: 10 * time.Second}
	if cfg == nil {
		return c
	}
	c.BaseURL = strings.TrimRight(cfg.App.BaseURL, "/")
	c.AdminLinkURL = cfg.AdminLinkURL()
	if cfg.Integrations.AWS.SES.Enabled {
		c.AdminEmails = cfg.Integrations.AWS.SES.AdminEmails
	}
	return c
}
