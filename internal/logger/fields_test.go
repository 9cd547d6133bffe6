package logger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/gig-assistant/internal/apperr"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestWithModel(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithModel(logger, "gemini", "model-x")
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider field to be gemini, got %q", ctx[FieldProvider])
	}

	if ctx[FieldModel] != "model-x" {
		t.Fatalf("expected model field to be model-x, got %q", ctx[FieldModel])
	}

	if len(ModelFields("", "")) != 0 {
		t.Fatalf("expected empty fields")
	}
	if got := ModelFields("", "model-x"); len(got) != 1 || got[0].Key != FieldModel {
		t.Fatalf("expected only the model field, got %+v", got)
	}
}

func TestOpFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("operation completed", OpFields("analyze_profile_fit", 2*time.Second)...)

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldOp] != "analyze_profile_fit" {
		t.Fatalf("unexpected op field: %v", ctx[FieldOp])
	}
	if ctx[FieldElapsed] != 2*time.Second {
		t.Fatalf("unexpected elapsed field: %v", ctx[FieldElapsed])
	}
}

func TestErrorFields(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", apperr.E("code_debug", apperr.BackupFailed, "src/app.js", errors.New("disk says no")))

	core, observed := observer.New(zapcore.InfoLevel)
	zap.New(core).Warn("operation failed", ErrorFields(err)...)

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldOp] != "code_debug" || ctx[FieldErrorKind] != "BackupFailed" || ctx[FieldSubject] != "src/app.js" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	for _, v := range ctx {
		if v == "disk says no" {
			t.Fatalf("cause message must not be logged")
		}
	}

	plain := ErrorFields(errors.New("boom"))
	if len(plain) != 1 || plain[0].String != string(apperr.Internal) {
		t.Fatalf("unexpected fields for untagged error: %+v", plain)
	}

	if ErrorFields(nil) != nil {
		t.Fatalf("expected no fields for nil error")
	}
}
