package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/shared/rabbitmq"
	"github.com/google/uuid"
)

// MessageType tags published job records
const MessageType = "job_record"

// Publisher is the subset of the RabbitMQ client the exchange sink needs
type Publisher interface {
	PublishWithRetry(ctx context.Context, msg rabbitmq.Publishing) error
}

// Exchange publishes each row as a JSON object to a RabbitMQ exchange
type Exchange struct {
	publisher Publisher
	exchange  string
}

// NewExchange creates an exchange sink
func NewExchange(publisher Publisher, exchange string) *Exchange {
	return &Exchange{
		publisher: publisher,
		exchange:  exchange,
	}
}

// Name identifies the exchange in logs and metrics
func (e *Exchange) Name() string {
	return "amqp:" + e.exchange
}

// Append publishes row keyed by column name
func (e *Exchange) Append(ctx context.Context, row []string) error {
	if len(row) != len(domain.Columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(row), len(domain.Columns))
	}

	doc := make(map[string]string, len(row))
	for i, col := range domain.Columns {
		doc[col] = row[i]
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal job record: %w", err)
	}

	err = e.publisher.PublishWithRetry(ctx, rabbitmq.Publishing{
		MessageID:   uuid.NewString(),
		Type:        MessageType,
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job record: %w", err)
	}

	return nil
}
