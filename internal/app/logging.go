package app

import "github.com/bft-labs/aq2rdb/internal/ports"

// fieldLogger prepends a fixed set of fields to every entry.
type fieldLogger struct {
	next   ports.Logger
	fields []ports.Field
}

func withFields(next ports.Logger, fields ...ports.Field) ports.Logger {
	return fieldLogger{next: next, fields: fields}
}

func (l fieldLogger) Debug(msg string, fields ...ports.Field) { l.next.Debug(msg, l.merge(fields)...) }
func (l fieldLogger) Info(msg string, fields ...ports.Field)  { l.next.Info(msg, l.merge(fields)...) }
func (l fieldLogger) Warn(msg string, fields ...ports.Field)  { l.next.Warn(msg, l.merge(fields)...) }
func (l fieldLogger) Error(msg string, fields ...ports.Field) { l.next.Error(msg, l.merge(fields)...) }

func (l fieldLogger) merge(fields []ports.Field) []ports.Field {
	out := make([]ports.Field, 0, len(l.fields)+len(fields))
	out = append(out, l.fields...)
	return append(out, fields...)
}
