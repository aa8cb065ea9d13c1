package script

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

func TestRunPrepareSelect(t *testing.T) {
	db := newTestDatabase(t)
	users, err := db.NewTable("users")
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	users.AddColumn("name", 20)
	users.Insert(table.Row{"name": "alice"})
	users.Insert(table.Row{"name": "bob"})

	v, err := Run(db, []Step{
		{Kind: KindPrepare, Table: "users"},
		{Kind: KindSelect, Alias: "name", Predicate: cell.Equals, Param: "bob"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := v.NumberOfRows(); got != 1 {
		t.Errorf("expected 1 row, got %d", got)
	}
}

func TestRunUnknownStepFails(t *testing.T) {
	db := newTestDatabase(t)
	if _, err := Run(db, []Step{{Kind: "bogus"}}); err == nil {
		t.Errorf("expected error for unknown step kind")
	}
}

func TestRunJoin(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")
	users.AddColumn("id", 4)
	orders, _ := db.NewTable("orders")
	orders.AddColumn("user_id", 4)
	users.Insert(table.Row{"id": "1"})
	orders.Insert(table.Row{"user_id": "1"})

	v, err := Run(db, []Step{
		{Kind: KindPrepare, Table: "users"},
		{Kind: KindJoin, Alias: "id", Table: "orders", Column: "user_id"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := v.NumberOfRows(); got != 1 {
		t.Errorf("expected 1 joined row, got %d", got)
	}
}
