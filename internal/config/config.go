package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Retry defaults applied when the key is absent or negative
const (
	DefaultLLMRetries     = 2
	DefaultPublishRetries = 3
)

// LLM providers
const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	LLM      LLMConfig      `yaml:"llm"`
	Telegram TelegramConfig `yaml:"telegram"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	File         string `yaml:"file"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// ServerConfig holds HTTP server configuration for the api service
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig controls the prometheus endpoint of the ingest service
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LLMConfig holds the hosted language model settings
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	APIVersion  string        `yaml:"api_version"`
	Deployment  string        `yaml:"deployment"`
	Temperature float64       `yaml:"temperature"`
	MaxRetries  int           `yaml:"max_retries"`
	Timeout     time.Duration `yaml:"timeout"`
}

// TelegramConfig holds the chat transport settings
type TelegramConfig struct {
	AppID       int      `yaml:"app_id"`
	AppHash     string   `yaml:"app_hash"`
	Phone       string   `yaml:"phone"`
	Password    string   `yaml:"password"`
	SessionFile string   `yaml:"session_file"`
	Channels    []string `yaml:"channels"`
	HistorySize int      `yaml:"history_page_size"`
}

// SheetsConfig holds the Google Sheets sink settings
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	SheetName       string `yaml:"sheet_name"`
	CredentialsGlob string `yaml:"credentials_glob"`
}

// DatabaseConfig holds the optional PostgreSQL sink settings
type DatabaseConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// RabbitMQConfig holds the optional AMQP sink settings
type RabbitMQConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Retry counts are seeded before parsing so an explicit 0 disables retries
	config := Config{
		LLM:      LLMConfig{MaxRetries: DefaultLLMRetries},
		RabbitMQ: RabbitMQConfig{Publish: PublishConfig{RetryAttempts: DefaultPublishRetries}},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

func (c *Config) setDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderAzure
	}
	if c.LLM.MaxRetries < 0 {
		c.LLM.MaxRetries = DefaultLLMRetries
	}
	if c.RabbitMQ.Publish.RetryAttempts < 0 {
		c.RabbitMQ.Publish.RetryAttempts = DefaultPublishRetries
	}
	if c.Telegram.SessionFile == "" {
		c.Telegram.SessionFile = "telegram.session"
	}
	if c.Telegram.HistorySize <= 0 {
		c.Telegram.HistorySize = 100
	}
	if c.Sheets.CredentialsGlob == "" {
		c.Sheets.CredentialsGlob = "*.json"
	}
	if c.Database.Table == "" {
		c.Database.Table = "job_postings"
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9090"
	}
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "direct"
	}
}

// ApplyEnv overrides file values with the environment variables the deployment sets
func (c *Config) ApplyEnv() error {
	setString(&c.Sheets.SheetName, "GOOGLE_SHEET_NAME")
	setString(&c.Telegram.AppHash, "TELEGRAM_API_HASH")
	setString(&c.Telegram.Phone, "TELEGRAM_PHONE")
	setString(&c.Telegram.Password, "TELEGRAM_PASSWORD")
	setString(&c.LLM.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&c.LLM.APIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&c.LLM.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&c.LLM.Deployment, "AZURE_OPENAI_DEPLOYMENT_NAME")
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.RabbitMQ.Password, "RABBITMQ_PASSWORD")

	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_API_ID %q: %w", v, err)
		}
		c.Telegram.AppID = id
	}

	if v := os.Getenv("TELEGRAM_CHANNELS"); v != "" {
		var channels []string
		for _, ch := range strings.Split(v, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				channels = append(channels, ch)
			}
		}
		c.Telegram.Channels = channels
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ValidateIngestConfig checks the settings the listener needs
func (c *Config) ValidateIngestConfig() error {
	var missing []string

	missing = append(missing, c.missingLLM()...)

	if c.Telegram.AppID == 0 {
		missing = append(missing, "TELEGRAM_API_ID")
	}
	if c.Telegram.AppHash == "" {
		missing = append(missing, "TELEGRAM_API_HASH")
	}
	if c.Telegram.Phone == "" {
		missing = append(missing, "TELEGRAM_PHONE")
	}

	missing = append(missing, c.missingSinks()...)

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if len(c.Telegram.Channels) == 0 {
		return errors.New("at least one telegram channel is required")
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return errors.New("metrics address is required when metrics are enabled")
	}

	return c.validateSinkPorts()
}

// ValidateAPIConfig checks the settings the HTTP variant needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	missing := append(c.missingLLM(), c.missingSinks()...)
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return c.validateSinkPorts()
}

func (c *Config) missingLLM() []string {
	var missing []string

	switch c.LLM.Provider {
	case ProviderAzure:
		if c.LLM.Endpoint == "" {
			missing = append(missing, "AZURE_OPENAI_ENDPOINT")
		}
		if c.LLM.APIVersion == "" {
			missing = append(missing, "AZURE_OPENAI_API_VERSION")
		}
	case ProviderOpenAI:
	default:
		missing = append(missing, fmt.Sprintf("llm.provider (unknown %q)", c.LLM.Provider))
	}

	if c.LLM.APIKey == "" {
		missing = append(missing, "AZURE_OPENAI_API_KEY")
	}
	if c.LLM.Deployment == "" {
		missing = append(missing, "AZURE_OPENAI_DEPLOYMENT_NAME")
	}

	return missing
}

func (c *Config) missingSinks() []string {
	var missing []string

	if c.Sheets.Enabled && c.Sheets.SheetName == "" {
		missing = append(missing, "GOOGLE_SHEET_NAME")
	}
	if c.Database.Enabled && c.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if c.RabbitMQ.Enabled && c.RabbitMQ.Exchange.Name == "" {
		missing = append(missing, "rabbitmq.exchange.name")
	}
	if !c.Sheets.Enabled && !c.Database.Enabled && !c.RabbitMQ.Enabled {
		missing = append(missing, "at least one sink (sheets, database, rabbitmq)")
	}

	return missing
}

func (c *Config) validateSinkPorts() error {
	if c.Database.Enabled && (c.Database.Port < MinPort || c.Database.Port > MaxPort) {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Enabled && (c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort) {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	return nil
}
