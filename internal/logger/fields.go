package logger

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/apperr"
)

// Keys shared by every operation log entry.
const (
	FieldOp        = "op"
	FieldErrorKind = "error_kind"
	FieldSubject   = "subject"
	FieldElapsed   = "elapsed"
	FieldSession   = "session"
)

// Keys attached by the advisory composer and its model client.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
)

// StringField is one key/value pair for StringFields.
type StringField struct {
	Key   string
	Value string
}

// StringFields keeps the pairs whose key and value are both non-blank, trimmed.
func StringFields(fields ...StringField) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key != "" && value != "" {
			out = append(out, zap.String(key, value))
		}
	}
	return out
}

// WithFields returns logger with fields attached. A nil logger becomes a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	switch {
	case logger == nil:
		logger = zap.NewNop()
	case len(fields) == 0:
		return logger
	}
	return logger.With(fields...)
}

// OpFields names the operation and how long it ran.
func OpFields(op string, elapsed time.Duration) []zap.Field {
	return []zap.Field{zap.String(FieldOp, op), zap.Duration(FieldElapsed, elapsed)}
}

// ModelFields names the model behind an advisory. Blank values are dropped.
func ModelFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithModel tags logger with ModelFields.
func WithModel(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ModelFields(provider, model)...)
}

// ErrorFields describes a failure by operation, kind and subject only. The cause
// message is left out since it may quote file or profile content.
func ErrorFields(err error) []zap.Field {
	if err == nil {
		return nil
	}

	var tagged *apperr.Error
	if !errors.As(err, &tagged) {
		return []zap.Field{zap.String(FieldErrorKind, string(apperr.Internal))}
	}

	return StringFields(
		StringField{Key: FieldOp, Value: tagged.Op},
		StringField{Key: FieldErrorKind, Value: string(tagged.Kind)},
		StringField{Key: FieldSubject, Value: tagged.Subject},
	)
}
