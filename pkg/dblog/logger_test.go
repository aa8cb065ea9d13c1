package dblog

import (
	"path/filepath"
	"testing"
)

func TestInitThenClose(t *testing.T) {
	defer Close()

	path := filepath.Join(t.TempDir(), "engine.log")
	if err := Init(Config{Level: LevelDebug, OutputPath: path, Format: "json"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Get().Info("hello")

	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestInitTwiceFails(t *testing.T) {
	defer Close()

	if err := Init(Config{Level: LevelInfo}); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := Init(Config{Level: LevelInfo}); err == nil {
		t.Errorf("expected second Init to fail before Close")
	}
}

func TestGetLazilyDefaults(t *testing.T) {
	defer Close()
	if l := Get(); l == nil {
		t.Errorf("expected Get to return a non-nil logger without explicit Init")
	}
}

func TestWithTableAttachesContext(t *testing.T) {
	defer Close()
	logger := WithTable("users")
	if logger == nil {
		t.Fatalf("expected non-nil logger")
	}
}
