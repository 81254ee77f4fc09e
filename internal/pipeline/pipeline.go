// Package pipeline wires the model client and the sinks into a Processor from configuration.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cuongbtq/jobfeed/internal/config"
	"github.com/cuongbtq/jobfeed/internal/extractor"
	"github.com/cuongbtq/jobfeed/internal/ingest"
	"github.com/cuongbtq/jobfeed/internal/llm"
	"github.com/cuongbtq/jobfeed/internal/metrics"
	"github.com/cuongbtq/jobfeed/internal/sink"
	"github.com/cuongbtq/jobfeed/shared/postgresql"
	"github.com/cuongbtq/jobfeed/shared/rabbitmq"
	"google.golang.org/api/option"
)

// Pipeline is the extraction and sink stack shared by both services
type Pipeline struct {
	Processor *ingest.Processor
	Sinks     []sink.Sink

	closers []io.Closer
	logger  *slog.Logger
}

// Options overrides how sinks are reached, mostly for tests
type Options struct {
	GoogleOptions []option.ClientOption
}

// New builds the pipeline. A sink that fails to connect is logged and left out,
// so the returned pipeline may have no sinks; callers decide whether that is fatal.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, opts Options) (*Pipeline, error) {
	llmClient, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Provider,
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      cfg.LLM.APIKey,
		APIVersion:  cfg.LLM.APIVersion,
		Deployment:  cfg.LLM.Deployment,
		Temperature: cfg.LLM.Temperature,
		MaxRetries:  cfg.LLM.MaxRetries,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}

	logger.Info("LLM client initialized",
		slog.String("provider", cfg.LLM.Provider),
		slog.String("deployment", llmClient.Deployment()),
	)

	p := &Pipeline{logger: logger}
	p.Sinks = p.connectSinks(ctx, cfg, opts)

	logger.Info("Sinks connected",
		slog.Int("count", len(p.Sinks)),
	)

	writer := sink.NewWriter(logger, m)
	router := ingest.NewRouter(writer, p.Sinks, logger)
	p.Processor = ingest.NewProcessor(extractor.New(llmClient, logger, m), router, logger, m)

	return p, nil
}

// Close releases the sink connections
func (p *Pipeline) Close() {
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			p.logger.Error("Failed to close sink connection",
				slog.Any("error", err),
			)
		}
	}
}

func (p *Pipeline) connectSinks(ctx context.Context, cfg *config.Config, opts Options) []sink.Sink {
	var sinks []sink.Sink

	if cfg.Sheets.Enabled {
		files, err := sink.DiscoverCredentials(cfg.Sheets.CredentialsGlob)
		if err != nil {
			p.logger.Warn("No Google Sheets credentials",
				slog.Any("error", err),
			)
		} else {
			p.logger.Info("Found Google Sheets credentials files",
				slog.Int("count", len(files)),
				slog.Any("files", files),
			)
			sinks = append(sinks, sink.ConnectSheets(ctx, files, cfg.Sheets.SheetName, p.logger, opts.GoogleOptions...)...)
		}
	}

	if cfg.Database.Enabled {
		table, err := p.connectTable(ctx, &cfg.Database)
		if err != nil {
			p.logger.Warn("Skipping PostgreSQL sink",
				slog.Any("error", err),
			)
		} else {
			sinks = append(sinks, table)
		}
	}

	if cfg.RabbitMQ.Enabled {
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, p.logger)
		if err != nil {
			p.logger.Warn("Skipping RabbitMQ sink",
				slog.Any("error", err),
			)
		} else {
			p.closers = append(p.closers, rabbitClient)
			sinks = append(sinks, sink.NewExchange(rabbitClient, cfg.RabbitMQ.Exchange.Name))
		}
	}

	return sinks
}

func (p *Pipeline) connectTable(ctx context.Context, cfg *config.DatabaseConfig) (*sink.Table, error) {
	dbClient, err := initPostgreSQL(cfg, p.logger)
	if err != nil {
		return nil, err
	}

	table, err := sink.NewTable(dbClient, cfg.Table)
	if err == nil {
		err = table.EnsureSchema(ctx)
	}
	if err != nil {
		dbClient.Close()
		return nil, err
	}

	p.closers = append(p.closers, dbClient)
	return table, nil
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ publisher
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}
