package logging

import (
	"go.uber.org/zap/zapcore"
)

// Core returns a zapcore.Core writing into the recorder. Tee it with a
// console core to keep every zap line in the diagnostic buffer.
func (r *Recorder) Core() zapcore.Core {
	return &recorderCore{rec: r}
}

type recorderCore struct {
	rec    *Recorder
	fields []zapcore.Field
}

func (c *recorderCore) Enabled(zapcore.Level) bool { return true }

func (c *recorderCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &recorderCore{rec: c.rec, fields: merged}
}

func (c *recorderCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(ent, c)
}

func (c *recorderCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	e := Entry{
		Timestamp: ent.Time,
		Level:     fromZap(ent.Level),
		Message:   ent.Message,
	}
	if critical, ok := enc.Fields[criticalKey].(bool); ok {
		delete(enc.Fields, criticalKey)
		if critical {
			e.Level = LevelCritical
		}
	}
	if msg, ok := enc.Fields["error"].(string); ok {
		e.Error = msg
		delete(enc.Fields, "error")
	}
	if ent.LoggerName != "" {
		enc.Fields["logger"] = ent.LoggerName
	}
	if len(enc.Fields) > 0 {
		e.Context = enc.Fields
	}

	c.rec.Record(e)
	return nil
}

func (c *recorderCore) Sync() error { return nil }

func fromZap(l zapcore.Level) Level {
	switch {
	case l <= zapcore.DebugLevel:
		return LevelDebug
	case l == zapcore.InfoLevel:
		return LevelInfo
	case l == zapcore.WarnLevel:
		return LevelWarn
	case l == zapcore.ErrorLevel:
		return LevelError
	default:
		return LevelCritical
	}
}
