package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesMetaTables(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Table(BeforeTable); err != nil {
		t.Errorf("expected %s to exist: %v", BeforeTable, err)
	}
	if _, err := db.Table(AfterTable); err != nil {
		t.Errorf("expected %s to exist: %v", AfterTable, err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := db1.NewTable("users"); err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	db1.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer db2.Close()

	if _, err := db2.Table("users"); err != nil {
		t.Errorf("expected users table to survive reopen: %v", err)
	}
	names := db2.TableNames()
	if len(names) != 3 {
		t.Errorf("expected 3 tables (users, ~before, ~after), got %d: %v", len(names), names)
	}
}

func TestOpenRejectsNonDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(file); err == nil {
		t.Errorf("expected error opening a regular file")
	}
}

func TestNewTableRejectsDuplicate(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.NewTable("orders"); err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if _, err := db.NewTable("orders"); err == nil {
		t.Errorf("expected error creating duplicate table")
	}
}

func TestDeleteTable(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.NewTable("orders"); err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := db.DeleteTable("orders"); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if _, err := db.Table("orders"); err == nil {
		t.Errorf("expected deleted table to be gone from registry")
	}
}

func TestRenameTable(t *testing.T) {
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.NewTable("old"); err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := db.RenameTable("old", "new"); err != nil {
		t.Fatalf("RenameTable: %v", err)
	}
	if _, err := db.Table("old"); err == nil {
		t.Errorf("expected old name to be gone")
	}
	if _, err := db.Table("new"); err != nil {
		t.Errorf("expected new name to resolve: %v", err)
	}
}
