package sink

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/cuongbtq/jobfeed/internal/domain"
	"github.com/cuongbtq/jobfeed/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	name  string
	err   error
	panic bool
	rows  [][]string
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Append(_ context.Context, row []string) error {
	if f.panic {
		panic("quota exceeded")
	}
	f.rows = append(f.rows, row)
	return f.err
}

var acme = domain.JobRecord{
	CompanyName:     "Acme Corp",
	JobRole:         "Backend Engineer",
	Compensation:    "12 LPA",
	ApplicationLink: "acme.co/apply",
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestWriter_Write(t *testing.T) {
	tests := []struct {
		name      string
		sinks     []*fakeSink
		wantErrs  []bool
		wantLog   string
		wantWrite []bool
	}{
		{
			name:      "all sinks succeed",
			sinks:     []*fakeSink{{name: "a"}, {name: "b"}},
			wantErrs:  []bool{false, false},
			wantWrite: []bool{true, true},
		},
		{
			name:      "first sink fails",
			sinks:     []*fakeSink{{name: "a", err: errors.New("permission denied")}, {name: "b"}},
			wantErrs:  []bool{true, false},
			wantWrite: []bool{true, true},
			wantLog:   "permission denied",
		},
		{
			name:      "sink panics",
			sinks:     []*fakeSink{{name: "a", panic: true}, {name: "b"}},
			wantErrs:  []bool{true, false},
			wantWrite: []bool{false, true},
			wantLog:   "sink panicked: quota exceeded",
		},
		{
			name: "no sinks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			w := NewWriter(newTestLogger(buf), nil)

			sinks := make([]Sink, len(tt.sinks))
			for i, s := range tt.sinks {
				sinks[i] = s
			}

			outcomes := w.Write(context.Background(), sinks, acme)

			require.Len(t, outcomes, len(tt.sinks))
			for i, o := range outcomes {
				assert.Equal(t, tt.sinks[i].name, o.Sink)
				assert.Equal(t, tt.wantErrs[i], o.Err != nil)
				if tt.wantWrite[i] {
					assert.Equal(t, [][]string{acme.Row()}, tt.sinks[i].rows)
				} else {
					assert.Empty(t, tt.sinks[i].rows)
				}
			}

			if tt.wantLog != "" {
				assert.Contains(t, buf.String(), tt.wantLog)
				assert.Contains(t, buf.String(), `"stack"`)
			}
		})
	}
}

func TestWriter_Write_PanicError(t *testing.T) {
	w := NewWriter(newTestLogger(&bytes.Buffer{}), nil)

	outcomes := w.Write(context.Background(), []Sink{&fakeSink{name: "a", panic: true}}, acme)

	require.Len(t, outcomes, 1)
	var panicErr *PanicError
	require.ErrorAs(t, outcomes[0].Err, &panicErr)
	assert.Equal(t, "quota exceeded", panicErr.Value)
}

func TestWriter_Write_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := NewWriter(newTestLogger(&bytes.Buffer{}), metrics.New(reg))

	w.Write(context.Background(), []Sink{
		&fakeSink{name: "a"},
		&fakeSink{name: "b", err: errors.New("boom")},
	}, acme)

	expected := `
# HELP jobfeed_sink_appends_total Total number of row appends by sink and status
# TYPE jobfeed_sink_appends_total counter
jobfeed_sink_appends_total{sink="a",status="ok"} 1
jobfeed_sink_appends_total{sink="b",status="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "jobfeed_sink_appends_total"))
}
