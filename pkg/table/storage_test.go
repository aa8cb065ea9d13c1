package table

import (
	"strings"
	"testing"
)

func newStorageTestTable(t *testing.T) *Table {
	t.Helper()
	tbl := newTestTable(t, "accounts")
	if err := tbl.AddColumn("name", 20); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := tbl.AddColumn("balance", 10); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	return tbl
}

// =============================================================================
// INSERT / READ
// =============================================================================

func TestInsertAndReadRow(t *testing.T) {
	tbl := newStorageTestTable(t)

	n, err := tbl.Insert(Row{"name": "alice", "balance": "100"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n != 0 {
		t.Errorf("expected first row number 0, got %d", n)
	}

	row, err := tbl.ReadRow(n)
	if err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if strings.TrimSpace(row["name"]) != "alice" {
		t.Errorf("expected name alice, got %q", row["name"])
	}
	if strings.TrimSpace(row["balance"]) != "100" {
		t.Errorf("expected balance 100, got %q", row["balance"])
	}
	if row[DeletedColumnName] != DeletedLive {
		t.Errorf("expected new row to be live, got %q", row[DeletedColumnName])
	}
}

func TestReadRowOutOfBounds(t *testing.T) {
	tbl := newStorageTestTable(t)
	if _, err := tbl.ReadRow(0); err == nil {
		t.Errorf("expected out-of-bounds error on empty table")
	}
}

// =============================================================================
// UPDATE / DELETE / RESTORE
// =============================================================================

func TestUpdateRow(t *testing.T) {
	tbl := newStorageTestTable(t)
	n, _ := tbl.Insert(Row{"name": "bob", "balance": "50"})

	if err := tbl.Update(n, Row{"balance": "75"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	row, _ := tbl.ReadRow(n)
	if strings.TrimSpace(row["balance"]) != "75" {
		t.Errorf("expected updated balance 75, got %q", row["balance"])
	}
	if strings.TrimSpace(row["name"]) != "bob" {
		t.Errorf("expected untouched name bob, got %q", row["name"])
	}
}

func TestDeleteThenRestore(t *testing.T) {
	tbl := newStorageTestTable(t)
	n, _ := tbl.Insert(Row{"name": "carol", "balance": "10"})

	if err := tbl.DeleteRow(n); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	deleted, err := tbl.isDeletedLocked(n)
	if err != nil {
		t.Fatalf("isDeletedLocked: %v", err)
	}
	if !deleted {
		t.Errorf("expected row to be tombstoned")
	}

	if err := tbl.DeleteRow(n); err == nil {
		t.Errorf("expected error re-deleting a tombstoned row")
	}

	if err := tbl.Restore(n); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	deleted, err = tbl.isDeletedLocked(n)
	if err != nil {
		t.Fatalf("isDeletedLocked: %v", err)
	}
	if deleted {
		t.Errorf("expected row to be live after restore")
	}
}

func TestNumberOfRowsCountsTombstones(t *testing.T) {
	tbl := newStorageTestTable(t)
	tbl.Insert(Row{"name": "a"})
	n2, _ := tbl.Insert(Row{"name": "b"})
	tbl.DeleteRow(n2)

	count, err := tbl.NumberOfRows()
	if err != nil {
		t.Fatalf("NumberOfRows: %v", err)
	}
	if count != 2 {
		t.Errorf("expected tombstoned rows still counted, got %d", count)
	}
}
