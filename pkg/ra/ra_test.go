package ra

import (
	"testing"

	"reldb/pkg/cell"
	"reldb/pkg/database"
	"reldb/pkg/table"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(t.TempDir())
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func mustTable(t *testing.T, db *database.Database, name string, columns map[string]int) *table.Table {
	t.Helper()
	tbl, err := db.NewTable(name)
	if err != nil {
		t.Fatalf("NewTable(%s): %v", name, err)
	}
	for col, length := range columns {
		if err := tbl.AddColumn(col, length); err != nil {
			t.Fatalf("AddColumn(%s): %v", col, err)
		}
	}
	return tbl
}

// =============================================================================
// PREPARE / SELECT
// =============================================================================

func TestPrepareAndSelect(t *testing.T) {
	db := newTestDatabase(t)
	users := mustTable(t, db, "users", map[string]int{"name": 20, "age": 4})
	users.Insert(table.Row{"name": "alice", "age": "30"})
	users.Insert(table.Row{"name": "bob", "age": "20"})

	v := New(db)
	if err := v.PrepareTable("users"); err != nil {
		t.Fatalf("PrepareTable: %v", err)
	}
	if err := v.Select("name", cell.Equals, "alice"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if got := v.NumberOfRows(); got != 1 {
		t.Fatalf("expected 1 row, got %d", got)
	}
	row, err := v.ReadRow(0)
	if err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if cell.Trim(row["name"]) != "alice" {
		t.Errorf("expected alice, got %q", row["name"])
	}
}

func TestSelectSkipsTombstonedRows(t *testing.T) {
	db := newTestDatabase(t)
	users := mustTable(t, db, "users", map[string]int{"name": 20})
	users.Insert(table.Row{"name": "alice"})
	n2, _ := users.Insert(table.Row{"name": "bob"})
	users.DeleteRow(n2)

	v := New(db)
	v.PrepareTable("users")
	if err := v.Select("name", cell.AnyOf, []string{"alice", "bob"}); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := v.NumberOfRows(); got != 1 {
		t.Fatalf("expected tombstoned row excluded, got %d rows", got)
	}
}

func TestProjectDropsUnreferencedTable(t *testing.T) {
	db := newTestDatabase(t)
	mustTable(t, db, "users", map[string]int{"name": 10})
	mustTable(t, db, "products", map[string]int{"sku": 10})

	v := New(db)
	v.PrepareTable("users")
	v.PrepareTable("products")

	if err := v.Project([]string{"name"}); err != nil {
		t.Fatalf("Project: %v", err)
	}
	if _, err := v.TableRowNumbers("products"); err == nil {
		t.Errorf("expected products table dropped after projecting it away")
	}
	if _, err := v.TableRowNumbers("users"); err != nil {
		t.Errorf("expected users table to remain: %v", err)
	}
}

// =============================================================================
// CROSS / JOIN
// =============================================================================

func TestCross(t *testing.T) {
	db := newTestDatabase(t)
	users := mustTable(t, db, "users", map[string]int{"name": 10})
	products := mustTable(t, db, "products", map[string]int{"sku": 10})
	users.Insert(table.Row{"name": "alice"})
	users.Insert(table.Row{"name": "bob"})
	products.Insert(table.Row{"sku": "p1"})
	products.Insert(table.Row{"sku": "p2"})
	products.Insert(table.Row{"sku": "p3"})

	v := New(db)
	v.PrepareTable("users")
	if err := v.Cross("products"); err != nil {
		t.Fatalf("Cross: %v", err)
	}
	if got := v.NumberOfRows(); got != 6 {
		t.Fatalf("expected 2*3=6 rows, got %d", got)
	}
}

func TestNLJoin(t *testing.T) {
	db := newTestDatabase(t)
	users := mustTable(t, db, "users", map[string]int{"id": 4, "name": 10})
	orders := mustTable(t, db, "orders", map[string]int{"user_id": 4, "total": 6})
	users.Insert(table.Row{"id": "1", "name": "alice"})
	users.Insert(table.Row{"id": "2", "name": "bob"})
	orders.Insert(table.Row{"user_id": "1", "total": "10"})
	orders.Insert(table.Row{"user_id": "1", "total": "20"})
	orders.Insert(table.Row{"user_id": "2", "total": "30"})

	v := New(db)
	v.PrepareTable("users")
	if err := v.NLJoin("id", "orders", "user_id"); err != nil {
		t.Fatalf("NLJoin: %v", err)
	}
	if got := v.NumberOfRows(); got != 3 {
		t.Fatalf("expected 3 matched rows, got %d", got)
	}

	rowNums, err := v.TableRowNumbers("orders")
	if err != nil {
		t.Fatalf("TableRowNumbers: %v", err)
	}
	if len(rowNums) != 3 {
		t.Errorf("expected 3 matched order rows, got %d", len(rowNums))
	}
}
