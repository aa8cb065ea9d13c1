package table

import (
	"strings"
	"testing"
)

func TestAddColumnEmptyTable(t *testing.T) {
	tbl := newTestTable(t, "widgets")

	if err := tbl.AddColumn("sku", 12); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	col, ok := tbl.Columns["sku"]
	if !ok {
		t.Fatalf("expected sku column to exist")
	}
	if col.Length != 12 {
		t.Errorf("expected length 12, got %d", col.Length)
	}
}

func TestAddColumnRebuildsNonEmptyTable(t *testing.T) {
	tbl := newTestTable(t, "widgets")
	if err := tbl.AddColumn("sku", 12); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	n, err := tbl.Insert(Row{"sku": "ABC123"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := tbl.AddColumn("price", 8); err != nil {
		t.Fatalf("AddColumn (rebuild): %v", err)
	}

	row, err := tbl.ReadRow(n)
	if err != nil {
		t.Fatalf("ReadRow after rebuild: %v", err)
	}
	if strings.TrimSpace(row["sku"]) != "ABC123" {
		t.Errorf("expected prior data preserved, got %q", row["sku"])
	}
	if _, ok := row["price"]; !ok {
		t.Errorf("expected new column present after rebuild")
	}
}

func TestDeleteColumnRebuildsAndDropsTombstoned(t *testing.T) {
	tbl := newTestTable(t, "widgets")
	if err := tbl.AddColumn("sku", 12); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := tbl.AddColumn("note", 20); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	tbl.Insert(Row{"sku": "keep", "note": "x"})
	dropMe, _ := tbl.Insert(Row{"sku": "drop", "note": "y"})
	tbl.DeleteRow(dropMe)

	if err := tbl.DeleteColumn("note"); err != nil {
		t.Fatalf("DeleteColumn: %v", err)
	}
	if _, ok := tbl.Columns["note"]; ok {
		t.Errorf("expected note column removed")
	}

	count, err := tbl.NumberOfRows()
	if err != nil {
		t.Fatalf("NumberOfRows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected tombstoned row dropped by rebuild, got %d rows", count)
	}

	row, err := tbl.ReadRow(0)
	if err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if strings.TrimSpace(row["sku"]) != "keep" {
		t.Errorf("expected surviving row to be 'keep', got %q", row["sku"])
	}
}

func TestDeleteColumnRejectsDeletedMarker(t *testing.T) {
	tbl := newTestTable(t, "widgets")
	if err := tbl.DeleteColumn(DeletedColumnName); err == nil {
		t.Errorf("expected error deleting the reserved ~del column")
	}
}

func TestAddColumnDuplicateFails(t *testing.T) {
	tbl := newTestTable(t, "widgets")
	if err := tbl.AddColumn("sku", 12); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := tbl.AddColumn("sku", 12); err == nil {
		t.Errorf("expected error adding duplicate column")
	}
}
