package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/internal/llm"
	"github.com/cuongbtq/jobfeed/internal/metrics"
)

// PreviewLength is the number of runes of a message kept in log lines
const PreviewLength = 100

// Completer sends a prompt to a language model
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, schema *llm.Schema) (string, error)
}

// Extractor turns free text into a JobRecord
type Extractor struct {
	completer Completer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates an Extractor. m may be nil.
func New(completer Completer, logger *slog.Logger, m *metrics.Metrics) *Extractor {
	return &Extractor{
		completer: completer,
		logger:    logger,
		metrics:   m,
	}
}

// Extract asks the model for the job fields in text.
// Any failure yields the empty record; the error is logged, never returned.
func (e *Extractor) Extract(ctx context.Context, text string) domain.JobRecord {
	e.logger.Info("Extracting job details",
		slog.String("preview", Preview(text)),
	)

	rec, err := e.extract(ctx, text)
	if err != nil {
		e.logger.Error("Failed to extract job details",
			slog.String("preview", Preview(text)),
			slog.Any("error", err),
			slog.String("stack", string(debug.Stack())),
		)
		e.metrics.Extraction(metrics.ResultFailed)
		return domain.JobRecord{}
	}

	if domain.IsPresent(rec) {
		e.metrics.Extraction(metrics.ResultPresent)
	} else {
		e.metrics.Extraction(metrics.ResultAbsent)
	}

	e.logger.Info("Extracted job details",
		slog.String("record", rec.String()),
	)

	return rec
}

func (e *Extractor) extract(ctx context.Context, text string) (domain.JobRecord, error) {
	content, err := e.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: instruction},
		{Role: llm.RoleUser, Content: text},
	}, &llm.Schema{
		Name:        "job_details",
		Description: "Job posting details extracted from a chat message",
		Definition:  jobSchema,
	})
	if err != nil {
		return domain.JobRecord{}, err
	}

	return decode(content)
}

// decode maps the model reply onto a record. null and absent fields become empty strings.
func decode(content string) (domain.JobRecord, error) {
	var reply struct {
		CompanyName     *string `json:"company_name"`
		JobRole         *string `json:"job_role"`
		Compensation    *string `json:"compensation"`
		ApplicationLink *string `json:"application_link"`
	}

	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return domain.JobRecord{}, fmt.Errorf("%w: %v", domain.ErrUnexpectedResponse, err)
	}

	return domain.JobRecord{
		CompanyName:     deref(reply.CompanyName),
		JobRole:         deref(reply.JobRole),
		Compensation:    deref(reply.Compensation),
		ApplicationLink: deref(reply.ApplicationLink),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Preview returns at most PreviewLength runes of text
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + "..."
}
