package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	t.Setenv("GIG_ASSISTANT_TEST_KEY", " from-env ")

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{"file wins", Source{File: keyFile, Value: "inline", Env: "GIG_ASSISTANT_TEST_KEY"}, "from-file"},
		{"inline before env", Source{Value: " inline ", Env: "GIG_ASSISTANT_TEST_KEY"}, "inline"},
		{"env fallback", Source{Env: "GIG_ASSISTANT_TEST_KEY"}, "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}
	t.Setenv("GIG_ASSISTANT_EMPTY_KEY", "")

	tests := []struct {
		name    string
		src     Source
		message string
	}{
		{"missing file", Source{Name: "gemini api key", File: filepath.Join(dir, "nope")}, "reading gemini api key"},
		{"empty file", Source{Name: "gemini api key", File: empty}, "is empty"},
		{"unset env", Source{Name: "gemini api key", Env: "GIG_ASSISTANT_EMPTY_KEY"}, "set GIG_ASSISTANT_EMPTY_KEY"},
		{"nothing", Source{}, "secret is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Fatalf("expected %q in %q", tt.message, err.Error())
			}
		})
	}
}
