package logger

import (
	"context"
	"log/slog"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap returns a zap logger that writes through l, for libraries that only accept zap
func NewZap(l *slog.Logger) *zap.Logger {
	return zap.New(&slogCore{logger: l})
}

// slogCore is a zapcore.Core backed by a slog.Logger
type slogCore struct {
	logger *slog.Logger
}

func (c *slogCore) Enabled(lvl zapcore.Level) bool {
	return c.logger.Enabled(context.Background(), toSlogLevel(lvl))
}

func (c *slogCore) With(fields []zapcore.Field) zapcore.Core {
	return &slogCore{logger: c.logger.With(fieldArgs(fields)...)}
}

func (c *slogCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *slogCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	args := fieldArgs(fields)
	if e.LoggerName != "" {
		args = append(args, slog.String("component", e.LoggerName))
	}

	c.logger.Log(context.Background(), toSlogLevel(e.Level), e.Message, args...)
	return nil
}

func (c *slogCore) Sync() error {
	return nil
}

func toSlogLevel(lvl zapcore.Level) slog.Level {
	switch {
	case lvl <= zapcore.DebugLevel:
		return slog.LevelDebug
	case lvl == zapcore.InfoLevel:
		return slog.LevelInfo
	case lvl == zapcore.WarnLevel:
		return slog.LevelWarn
	case lvl == zapcore.ErrorLevel:
		return slog.LevelError
	default:
		return LevelFatal
	}
}

// fieldArgs flattens zap fields into slog attributes, sorted by key
func fieldArgs(fields []zapcore.Field) []any {
	if len(fields) == 0 {
		return nil
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, slog.Any(k, enc.Fields[k]))
	}
	return args
}
