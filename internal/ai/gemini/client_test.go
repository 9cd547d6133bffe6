package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type fakeModels struct {
	calls  int
	model  string
	prompt string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModels) generate(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{nil, {Content: content}}}
}

func TestGenerateContentJoinsParts(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	fake := &fakeModels{resp: textResponse("  first  ", "", "second")}
	gen := newGenerator(fake.generate, Options{Logger: zap.New(core)})

	out, err := gen.GenerateContent(context.Background(), "  secret prompt  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != "first\nsecond" {
		t.Fatalf("unexpected output %q", out)
	}
	if fake.model != defaultModel || gen.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", fake.model)
	}
	if fake.prompt != "secret prompt" {
		t.Fatalf("expected trimmed prompt, got %q", fake.prompt)
	}

	for _, entry := range observed.All() {
		for _, v := range entry.ContextMap() {
			if s, ok := v.(string); ok && strings.Contains(s, "secret prompt") {
				t.Fatalf("prompt text must not be logged")
			}
		}
		if entry.ContextMap()["ai_provider"] != "gemini" {
			t.Fatalf("expected provider field on %q", entry.Message)
		}
	}
}

func TestGenerateContentFailures(t *testing.T) {
	tests := []struct {
		name   string
		fake   *fakeModels
		prompt string
		want   string
	}{
		{"empty prompt", &fakeModels{}, "   ", "prompt must not be empty"},
		{"api error", &fakeModels{err: errors.New("quota")}, "hi", "generate content: quota"},
		{"empty response", &fakeModels{resp: textResponse("  ")}, "hi", "empty response"},
		{"nil response", &fakeModels{}, "hi", "empty response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newGenerator(tt.fake.generate, Options{Model: "gemini-test"})

			_, err := gen.GenerateContent(context.Background(), tt.prompt)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestGenerateContentRespectsRateLimit(t *testing.T) {
	fake := &fakeModels{resp: textResponse("ok")}
	gen := newGenerator(fake.generate, Options{RequestsPerMinute: 1})

	if _, err := gen.GenerateContent(context.Background(), "one"); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := gen.GenerateContent(ctx, "two")
	if err == nil || !strings.Contains(err.Error(), "rate limiter") {
		t.Fatalf("expected rate limiter error, got %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected the second call to be held back, got %d calls", fake.calls)
	}
}

func TestNilGenerator(t *testing.T) {
	var gen *Generator
	if _, err := gen.GenerateContent(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error from nil generator")
	}
	if gen.Model() != "" {
		t.Fatalf("expected empty model")
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), Options{APIKey: "  "}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
