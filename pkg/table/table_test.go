package table

import (
	"path/filepath"
	"testing"
)

type fakeOwner struct {
	dir string
}

func (f fakeOwner) Dir() string { return f.dir }

func newTestTable(t *testing.T, name string) *Table {
	t.Helper()
	owner := fakeOwner{dir: t.TempDir()}
	tbl, err := Create(owner, name)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

// =============================================================================
// CREATE / OPEN
// =============================================================================

func TestCreate(t *testing.T) {
	tests := []struct {
		name          string
		tableName     string
		expectedError bool
	}{
		{name: "valid name", tableName: "users", expectedError: false},
		{name: "name too long", tableName: string(make([]byte, MaxNameLength+1)), expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := fakeOwner{dir: t.TempDir()}
			tbl, err := Create(owner, tt.tableName)
			if tt.expectedError {
				if err == nil {
					t.Errorf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer tbl.Close()

			if _, ok := tbl.Columns[DeletedColumnName]; !ok {
				t.Errorf("expected ~del column to be registered on creation")
			}
		})
	}
}

func TestCreateDuplicateFails(t *testing.T) {
	owner := fakeOwner{dir: t.TempDir()}
	tbl, err := Create(owner, "orders")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer tbl.Close()

	if _, err := Create(owner, "orders"); err == nil {
		t.Errorf("expected error creating duplicate table")
	}
}

func TestOpenRoundTrip(t *testing.T) {
	owner := fakeOwner{dir: t.TempDir()}
	tbl, err := Create(owner, "items")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := tbl.AddColumn("name", 20); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if _, err := tbl.Insert(Row{"name": "widget"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	tbl.Close()

	reopened, err := Open(owner, "items")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.NumberOfRows()
	if err != nil {
		t.Fatalf("NumberOfRows: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row after reopen, got %d", n)
	}
}

// =============================================================================
// RENAME
// =============================================================================

func TestRename(t *testing.T) {
	tbl := newTestTable(t, "old_name")
	if err := tbl.AddColumn("value", 10); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if _, err := tbl.Insert(Row{"value": "abc"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := tbl.Rename("new_name"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if tbl.Name != "new_name" {
		t.Errorf("expected Name to update, got %q", tbl.Name)
	}

	defPath, dataPath, _ := tbl.Paths()
	if filepath.Base(defPath) != "new_name.def" {
		t.Errorf("expected def path to be renamed, got %s", defPath)
	}
	if filepath.Base(dataPath) != "new_name.data" {
		t.Errorf("expected data path to be renamed, got %s", dataPath)
	}

	row, err := tbl.ReadRow(0)
	if err != nil {
		t.Fatalf("ReadRow after rename: %v", err)
	}
	if got := row["value"]; got[:3] != "abc" {
		t.Errorf("expected surviving row data, got %q", got)
	}
}
