package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestValidLevelAndFormat(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error"} {
		if !ValidLevel(s) {
			t.Errorf("ValidLevel(%q) = false", s)
		}
	}
	if ValidLevel("trace") {
		t.Error("ValidLevel(trace) = true")
	}
	if !ValidFormat("json") || !ValidFormat("text") {
		t.Error("json/text should be valid formats")
	}
	if ValidFormat("yaml") {
		t.Error("ValidFormat(yaml) = true")
	}
}

func TestNewWithoutFile(t *testing.T) {
	logger, closer := New(DefaultConfig())
	if logger == nil {
		t.Fatal("New returned nil logger")
	}
	if closer != nil {
		t.Error("no file configured, closer should be nil")
	}
}

func TestNewWithFileWritesAndRotatesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	cfg := DefaultConfig()
	cfg.FilePath = path
	cfg.Format = "text"

	logger, closer := New(cfg)
	if closer == nil {
		t.Fatal("file configured, expected a closer")
	}
	logger.Info("hello", "key", "value")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing record: %q", data)
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	if !strings.Contains(s, "level=info") || !strings.Contains(s, "format=json") {
		t.Errorf("String() = %q", s)
	}
	if strings.Contains(s, "file=") {
		t.Errorf("no file configured but String() mentions one: %q", s)
	}

	cfg.FilePath = "/var/log/app.log"
	if !strings.Contains(cfg.String(), "file=/var/log/app.log") {
		t.Errorf("String() = %q", cfg.String())
	}
}
