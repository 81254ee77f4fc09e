package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultTimeout bounds a single completion request
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the SDK-level retry bound
	DefaultMaxRetries = 2
)

var (
	// ErrAPIKeyNotSet is returned when no API key is configured
	ErrAPIKeyNotSet = errors.New("llm API key not set")

	// ErrDeploymentNotSet is returned when no model deployment is configured
	ErrDeploymentNotSet = errors.New("llm deployment not set")
)

// Roles accepted in Message.Role
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Config holds the model client settings
type Config struct {
	Provider    string // azure or openai
	Endpoint    string // azure resource endpoint, or an optional base URL for openai
	APIKey      string
	APIVersion  string
	Deployment  string
	Temperature float64
	MaxRetries  int
	Timeout     time.Duration
}

// Message is one role-tagged entry of the prompt
type Message struct {
	Role    string
	Content string
}

// Schema constrains the completion to a JSON document
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Client sends chat completions to a hosted model
type Client struct {
	client      openai.Client
	deployment  string
	temperature float64
}

// NewClient creates a client for the configured provider
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if cfg.Deployment == "" {
		return nil, ErrDeploymentNotSet
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}

	opts := []option.RequestOption{
		option.WithMaxRetries(maxRetries),
		option.WithRequestTimeout(timeout),
	}

	switch cfg.Provider {
	case "azure", "":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("azure endpoint is required")
		}
		opts = append(opts,
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	case "openai":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(cfg.Endpoint))
		}
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	return &Client{
		client:      openai.NewClient(opts...),
		deployment:  cfg.Deployment,
		temperature: cfg.Temperature,
	}, nil
}

// Deployment returns the model deployment requests are sent to
func (c *Client) Deployment() string {
	return c.deployment
}

// Complete sends the messages and returns the content of the first choice.
// When schema is set the reply is constrained to it in strict mode.
func (c *Client) Complete(ctx context.Context, messages []Message, schema *Schema) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.deployment),
		Messages:    make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
		Temperature: openai.Float(c.temperature),
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		default:
			return "", fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	if schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        schema.Name,
					Description: openai.String(schema.Description),
					Schema:      schema.Definition,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", domain.ErrEmptyCompletion
	}

	choice := completion.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: model refused: %s", domain.ErrUnexpectedResponse, choice.Message.Refusal)
	}

	return choice.Message.Content, nil
}
