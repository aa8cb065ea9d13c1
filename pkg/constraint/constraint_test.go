package constraint

import (
	"testing"

	"reldb/pkg/database"
	"reldb/pkg/rowop"
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

// =============================================================================
// PRIMARY KEY
// =============================================================================

func TestPKRejectsDuplicate(t *testing.T) {
	db := newTestDatabase(t)
	users, err := db.NewTable("users")
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := users.AddColumn("id", 4); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	if err := PK(db, "users", "id"); err != nil {
		t.Fatalf("PK: %v", err)
	}

	if _, err := rowop.Insert(db, users, table.Row{"id": "1"}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := rowop.Insert(db, users, table.Row{"id": "1"}); err == nil {
		t.Errorf("expected duplicate primary key to be rejected")
	}
}

func TestRemovePKLiftsConstraint(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")
	users.AddColumn("id", 4)

	if err := PK(db, "users", "id"); err != nil {
		t.Fatalf("PK: %v", err)
	}
	if err := RemovePK(db, "users", "id"); err != nil {
		t.Fatalf("RemovePK: %v", err)
	}

	rowop.Insert(db, users, table.Row{"id": "1"})
	if _, err := rowop.Insert(db, users, table.Row{"id": "1"}); err != nil {
		t.Errorf("expected duplicate to be allowed after RemovePK, got error: %v", err)
	}
}

// =============================================================================
// FOREIGN KEY
// =============================================================================

func TestFKRejectsDanglingReference(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")
	users.AddColumn("id", 4)
	orders, _ := db.NewTable("orders")
	orders.AddColumn("user_id", 4)

	if err := FK(db, "orders", "user_id", "users", "id"); err != nil {
		t.Fatalf("FK: %v", err)
	}

	if _, err := rowop.Insert(db, orders, table.Row{"user_id": "1"}); err == nil {
		t.Errorf("expected insert with no matching parent to be rejected")
	}

	rowop.Insert(db, users, table.Row{"id": "1"})
	if _, err := rowop.Insert(db, orders, table.Row{"user_id": "1"}); err != nil {
		t.Errorf("expected insert with matching parent to succeed, got: %v", err)
	}
}

func TestFKRestrictsParentDelete(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")
	users.AddColumn("id", 4)
	orders, _ := db.NewTable("orders")
	orders.AddColumn("user_id", 4)

	if err := FK(db, "orders", "user_id", "users", "id"); err != nil {
		t.Fatalf("FK: %v", err)
	}

	n, err := rowop.Insert(db, users, table.Row{"id": "1"})
	if err != nil {
		t.Fatalf("insert parent: %v", err)
	}
	if _, err := rowop.Insert(db, orders, table.Row{"user_id": "1"}); err != nil {
		t.Fatalf("insert child: %v", err)
	}

	if _, err := rowop.Delete(db, users, n); err == nil {
		t.Errorf("expected delete of referenced parent row to be restricted")
	}
}
