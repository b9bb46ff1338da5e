package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	FieldSessionID  = "session_id"
	FieldIteration  = "iteration"
	FieldGeneration = "run_generation"
	FieldRequestID  = "request_id"
	FieldOperation  = "operation"
)

// PreviewLimit caps request and response previews in debug logs.
const PreviewLimit = 300

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, defaulting to a no-op logger
// when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SessionFields describes an analysis session. A zero session id means no
// session exists (degraded mode) and is left out.
func SessionFields(sessionID int64, iteration int) []zap.Field {
	if sessionID == 0 {
		return nil
	}
	return []zap.Field{
		zap.Int64(FieldSessionID, sessionID),
		zap.Int(FieldIteration, iteration),
	}
}

// WithRun tags every entry of an orchestrated run with its generation.
func WithRun(logger *zap.Logger, generation uint64) *zap.Logger {
	return WithFields(logger, zap.Uint64(FieldGeneration, generation))
}

// Preview is a truncated body for debug logs.
func Preview(body []byte) zap.Field {
	return zap.String("body", Truncate(string(body), PreviewLimit))
}
