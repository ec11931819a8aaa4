// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Slack        SlackConfig       `mapstructure:"slack"`
	LLM          LLMConfig         `mapstructure:"llm"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Cache        CacheConfig       `mapstructure:"cache"`
	Dispatch     DispatchConfig    `mapstructure:"dispatch"`
	Camunda      CamundaConfig     `mapstructure:"camunda"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Search       SearchConfig      `mapstructure:"search"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	BaseURL     string `mapstructure:"base_url"` // used for deep links in Slack replies
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	AckDeadline  int    `mapstructure:"ack_deadline"`  // milliseconds, Slack gives us 3s
}

type SlackConfig struct {
	SigningSecret string `mapstructure:"signing_secret"`
	BotToken      string `mapstructure:"bot_token"`
	CallbackID    string `mapstructure:"callback_id"`
	APIURL        string `mapstructure:"api_url"`
	AdminLinkPath string `mapstructure:"admin_link_path"`
}

// LLMConfig configures the completion endpoint used by the classifier.
type LLMConfig struct {
	BaseURL              string  `mapstructure:"base_url"`
	APIKey               string  `mapstructure:"api_key"`
	Model                string  `mapstructure:"model"`
	MaxTokens            int     `mapstructure:"max_tokens"`
	Temperature          float64 `mapstructure:"temperature"`
	Timeout              int     `mapstructure:"timeout"` // milliseconds
	MaxRetries           int     `mapstructure:"max_retries"`
	FallbackOnParseError bool    `mapstructure:"fallback_on_parse_error"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds Redis TTLs in seconds.
type CacheConfig struct {
	MappingTTL int `mapstructure:"mapping_ttl"`
	DedupTTL   int `mapstructure:"dedup_ttl"`
}

const (
	DispatchBackendLocal   = "local"
	DispatchBackendCamunda = "camunda"
)

// DispatchConfig controls how acknowledged interactions are processed in the background.
type DispatchConfig struct {
	Backend        string `mapstructure:"backend"`
	Workers        int    `mapstructure:"workers"`
	QueueSize      int    `mapstructure:"queue_size"`
	JobTimeout     int    `mapstructure:"job_timeout"`     // milliseconds
	EnqueueTimeout int    `mapstructure:"enqueue_timeout"` // milliseconds
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	ProcessID      string `mapstructure:"process_id"`
	JobType        string `mapstructure:"job_type"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// IntegrationConfig holds settings for AWS fan-out integrations.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SNS    struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
		SES struct {
			Enabled     bool     `mapstructure:"enabled"`
			FromEmail   string   `mapstructure:"from_email"`
			AdminEmails []string `mapstructure:"admin_emails"`
		} `mapstructure:"ses"`
	} `mapstructure:"aws"`
}

// SearchConfig controls indexing of created tasks into Elasticsearch.
type SearchConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AdminLinkURL is the page where administrators link channels to ventures.
func (c *Config) AdminLinkURL() string {
	return strings.TrimRight(c.App.BaseURL, "/") + c.Slack.AdminLinkPath
}
