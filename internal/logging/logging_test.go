package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestResolveDir(t *testing.T) {
	t.Setenv("LOGS_FOLDER", "")

	if got := ResolveDir("/explicit", "/opt/bin/tourstats", nil); got != "/explicit" {
		t.Errorf("Expected explicit dir, got %s", got)
	}
	if got := ResolveDir("", "/opt/bin/tourstats", nil); got != filepath.Join("/opt/bin", "logs") {
		t.Errorf("Expected binary-relative dir, got %s", got)
	}
	if got := ResolveDir("", "", errors.New("no executable")); got != "logs" {
		t.Errorf("Expected ./logs fallback, got %s", got)
	}

	t.Setenv("LOGS_FOLDER", "/var/log/tourstats")
	if got := ResolveDir("", "/opt/bin/tourstats", nil); got != "/var/log/tourstats" {
		t.Errorf("Expected LOGS_FOLDER, got %s", got)
	}
}

func TestInit_CreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path, err := Init(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Errorf("Expected %s, got %s", filepath.Join(dir, FileName), path)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected log directory to exist: %v", err)
	}
}

func TestNewRun(t *testing.T) {
	id, _ := NewRun("analyze")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Expected a UUID run id, got %q", id)
	}
}
