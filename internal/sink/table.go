package sink

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/google/uuid"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Execer is the subset of the PostgreSQL client the table sink needs
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) error
}

type jobRow struct {
	ID              uuid.UUID `db:"id"`
	CompanyName     string    `db:"company_name"`
	JobRole         string    `db:"job_role"`
	Compensation    string    `db:"compensation"`
	ApplicationLink string    `db:"application_link"`
	CreatedAt       time.Time `db:"created_at"`
}

// Table appends rows to a PostgreSQL table
type Table struct {
	db    Execer
	table string
	now   func() time.Time
}

// NewTable creates a table sink. The name must be a plain SQL identifier.
func NewTable(db Execer, table string) (*Table, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	return &Table{
		db:    db,
		table: table,
		now:   time.Now,
	}, nil
}

// Name identifies the table in logs and metrics
func (t *Table) Name() string {
	return "postgres:" + t.table
}

// EnsureSchema creates the table when it does not exist yet
func (t *Table) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			company_name TEXT NOT NULL DEFAULT '',
			job_role TEXT NOT NULL DEFAULT '',
			compensation TEXT NOT NULL DEFAULT '',
			application_link TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, t.table)

	if err := t.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.table, err)
	}

	return nil
}

// Append inserts row as a new record
func (t *Table) Append(ctx context.Context, row []string) error {
	if len(row) != len(domain.Columns) {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(row), len(domain.Columns))
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, company_name, job_role, compensation, application_link, created_at)
		VALUES (:id, :company_name, :job_role, :compensation, :application_link, :created_at)
	`, t.table)

	arg := jobRow{
		ID:              uuid.New(),
		CompanyName:     row[0],
		JobRole:         row[1],
		Compensation:    row[2],
		ApplicationLink: row[3],
		CreatedAt:       t.now().UTC(),
	}

	if err := t.db.NamedExecContext(ctx, query, arg); err != nil {
		return fmt.Errorf("failed to insert job record: %w", err)
	}

	return nil
}
