package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	queries []string
	args    []interface{}
	err     error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, _ ...interface{}) error {
	f.queries = append(f.queries, query)
	return f.err
}

func (f *fakeExecer) NamedExecContext(_ context.Context, query string, arg interface{}) error {
	f.queries = append(f.queries, query)
	f.args = append(f.args, arg)
	return f.err
}

func TestNewTable(t *testing.T) {
	tests := []struct {
		table   string
		wantErr bool
	}{
		{table: "job_postings"},
		{table: "_jobs2"},
		{table: "jobs; DROP TABLE users", wantErr: true},
		{table: "public.jobs", wantErr: true},
		{table: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			table, err := NewTable(&fakeExecer{}, tt.table)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "postgres:"+tt.table, table.Name())
		})
	}
}

func TestTable_EnsureSchema(t *testing.T) {
	db := &fakeExecer{}
	table, err := NewTable(db, "job_postings")
	require.NoError(t, err)

	require.NoError(t, table.EnsureSchema(context.Background()))
	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], "CREATE TABLE IF NOT EXISTS job_postings")
}

func TestTable_Append(t *testing.T) {
	db := &fakeExecer{}
	table, err := NewTable(db, "job_postings")
	require.NoError(t, err)
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	table.now = func() time.Time { return fixed }

	require.NoError(t, table.Append(context.Background(), acme.Row()))

	require.Len(t, db.args, 1)
	row, ok := db.args[0].(jobRow)
	require.True(t, ok)
	assert.NotEmpty(t, row.ID.String())
	assert.Equal(t, "Acme Corp", row.CompanyName)
	assert.Equal(t, "Backend Engineer", row.JobRole)
	assert.Equal(t, "12 LPA", row.Compensation)
	assert.Equal(t, "acme.co/apply", row.ApplicationLink)
	assert.Equal(t, fixed, row.CreatedAt)
	assert.Contains(t, db.queries[0], "INSERT INTO job_postings")
}

func TestTable_Append_Errors(t *testing.T) {
	table, err := NewTable(&fakeExecer{err: errors.New("connection reset")}, "job_postings")
	require.NoError(t, err)

	err = table.Append(context.Background(), []string{"only", "two"})
	assert.ErrorIs(t, err, ErrRowWidth)

	err = table.Append(context.Background(), acme.Row())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
