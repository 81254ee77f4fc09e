package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, "jobfeed-ingest", cfg.App.Name)
				assert.Equal(t, "app.log", cfg.Logging.File)
				assert.Equal(t, ProviderAzure, cfg.LLM.Provider)
				assert.Equal(t, "gpt-4o-mini", cfg.LLM.Deployment)
				assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
				assert.Equal(t, 12345, cfg.Telegram.AppID)
				assert.Equal(t, []string{"https://t.me/dot_aware", "https://t.me/OceanOfJobs"}, cfg.Telegram.Channels)
				assert.Equal(t, "Jobs", cfg.Sheets.SheetName)
				assert.Equal(t, "credentials/*.json", cfg.Sheets.CredentialsGlob)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("testdata/minimal.yaml")
	require.NoError(t, err)

	assert.Equal(t, ProviderAzure, cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, "telegram.session", cfg.Telegram.SessionFile)
	assert.Equal(t, 100, cfg.Telegram.HistorySize)
	assert.Equal(t, "*.json", cfg.Sheets.CredentialsGlob)
	assert.Equal(t, "job_postings", cfg.Database.Table)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, "direct", cfg.RabbitMQ.Exchange.Type)
	assert.Equal(t, DefaultPublishRetries, cfg.RabbitMQ.Publish.RetryAttempts)
}

func TestLoad_RetryOverrides(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantLLM     int
		wantPublish int
	}{
		{
			name:        "explicit zero disables retries",
			yaml:        "llm:\n  max_retries: 0\nrabbitmq:\n  publish:\n    retry_attempts: 0\n",
			wantLLM:     0,
			wantPublish: 0,
		},
		{
			name:        "negative falls back to defaults",
			yaml:        "llm:\n  max_retries: -1\nrabbitmq:\n  publish:\n    retry_attempts: -1\n",
			wantLLM:     DefaultLLMRetries,
			wantPublish: DefaultPublishRetries,
		},
		{
			name:        "custom values kept",
			yaml:        "llm:\n  max_retries: 5\nrabbitmq:\n  publish:\n    retry_attempts: 7\n",
			wantLLM:     5,
			wantPublish: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o600))

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLLM, cfg.LLM.MaxRetries)
			assert.Equal(t, tt.wantPublish, cfg.RabbitMQ.Publish.RetryAttempts)
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEET_NAME", "Env Jobs")
	t.Setenv("TELEGRAM_API_ID", "777")
	t.Setenv("TELEGRAM_API_HASH", "hash")
	t.Setenv("TELEGRAM_PHONE", "+19999999999")
	t.Setenv("TELEGRAM_CHANNELS", " https://t.me/a , ,@b ")
	t.Setenv("AZURE_OPENAI_API_KEY", "env-key")
	t.Setenv("AZURE_OPENAI_API_VERSION", "2024-10-21")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://env.openai.azure.com")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "env-deployment")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "Env Jobs", cfg.Sheets.SheetName)
	assert.Equal(t, 777, cfg.Telegram.AppID)
	assert.Equal(t, "hash", cfg.Telegram.AppHash)
	assert.Equal(t, "+19999999999", cfg.Telegram.Phone)
	assert.Equal(t, []string{"https://t.me/a", "@b"}, cfg.Telegram.Channels)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
	assert.Equal(t, "2024-10-21", cfg.LLM.APIVersion)
	assert.Equal(t, "https://env.openai.azure.com", cfg.LLM.Endpoint)
	assert.Equal(t, "env-deployment", cfg.LLM.Deployment)
}

func TestConfig_ApplyEnv_InvalidAppID(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "not-a-number")

	cfg := &Config{}
	err := cfg.ApplyEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TELEGRAM_API_ID")
}

func validIngestConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   ProviderAzure,
			Endpoint:   "https://example.openai.azure.com",
			APIKey:     "key",
			APIVersion: "2024-08-01-preview",
			Deployment: "gpt-4o-mini",
		},
		Telegram: TelegramConfig{
			AppID:    1,
			AppHash:  "hash",
			Phone:    "+10000000000",
			Channels: []string{"https://t.me/dot_aware"},
		},
		Sheets: SheetsConfig{
			Enabled:   true,
			SheetName: "Jobs",
		},
	}
}

func TestConfig_ValidateIngestConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "missing azure settings are listed together",
			mutate: func(c *Config) {
				c.LLM.Endpoint = ""
				c.LLM.APIKey = ""
			},
			wantErr:   true,
			errString: "AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY",
		},
		{
			name: "openai provider does not need endpoint",
			mutate: func(c *Config) {
				c.LLM.Provider = ProviderOpenAI
				c.LLM.Endpoint = ""
				c.LLM.APIVersion = ""
			},
			wantErr: false,
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.LLM.Provider = "bedrock"
			},
			wantErr:   true,
			errString: "unknown \"bedrock\"",
		},
		{
			name: "missing telegram credentials",
			mutate: func(c *Config) {
				c.Telegram.AppID = 0
				c.Telegram.Phone = ""
			},
			wantErr:   true,
			errString: "TELEGRAM_API_ID, TELEGRAM_PHONE",
		},
		{
			name: "missing sheet name",
			mutate: func(c *Config) {
				c.Sheets.SheetName = ""
			},
			wantErr:   true,
			errString: "GOOGLE_SHEET_NAME",
		},
		{
			name: "no sink enabled",
			mutate: func(c *Config) {
				c.Sheets.Enabled = false
			},
			wantErr:   true,
			errString: "at least one sink",
		},
		{
			name: "no channels",
			mutate: func(c *Config) {
				c.Telegram.Channels = nil
			},
			wantErr:   true,
			errString: "at least one telegram channel",
		},
		{
			name: "database sink with invalid port",
			mutate: func(c *Config) {
				c.Database = DatabaseConfig{Enabled: true, Host: "localhost", Port: 0}
			},
			wantErr:   true,
			errString: "invalid database port",
		},
		{
			name: "rabbitmq sink with invalid port",
			mutate: func(c *Config) {
				c.RabbitMQ = RabbitMQConfig{Enabled: true, Port: 70000, Exchange: ExchangeConfig{Name: "jobs"}}
			},
			wantErr:   true,
			errString: "invalid rabbitmq port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validIngestConfig()
			tt.mutate(cfg)

			err := cfg.ValidateIngestConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := validIngestConfig()
		cfg.Server.Port = 8080
		cfg.Telegram = TelegramConfig{}

		assert.NoError(t, cfg.ValidateAPIConfig())
	})

	t.Run("invalid port from file", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("missing model settings", func(t *testing.T) {
		cfg, err := Load("testdata/minimal.yaml")
		require.NoError(t, err)

		err = cfg.ValidateAPIConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AZURE_OPENAI_DEPLOYMENT_NAME")
		assert.Contains(t, err.Error(), "GOOGLE_SHEET_NAME")
	})
}

func TestPortConstants(t *testing.T) {
	assert.Equal(t, 1, MinPort)
	assert.Equal(t, 65535, MaxPort)
}
