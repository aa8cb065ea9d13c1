package filelock

import "testing"

func TestAcquireReleaseRoundTrip(t *testing.T) {
	dir := t.TempDir()

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestReleaseNilGuardIsNoop(t *testing.T) {
	var guard *Guard
	if err := guard.Release(); err != nil {
		t.Errorf("expected nil guard Release to be a no-op, got %v", err)
	}
}

func TestAcquireNonexistentDirFails(t *testing.T) {
	if _, err := Acquire("/nonexistent/path/for/flock/test"); err == nil {
		t.Errorf("expected error acquiring a lock on a nonexistent directory")
	}
}
