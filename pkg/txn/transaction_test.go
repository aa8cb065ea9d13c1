package txn

import (
	"testing"

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

// =============================================================================
// COMMIT / ROLLBACK
// =============================================================================

func TestTransactionCommit(t *testing.T) {
	db := newTestDatabase(t)
	users, err := db.NewTable("users")
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	users.AddColumn("name", 10)

	tx := New(db)
	if _, err := tx.Insert(users, table.Row{"name": "alice"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	count, err := users.NumberOfRows()
	if err != nil {
		t.Fatalf("NumberOfRows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after commit, got %d", count)
	}

	locks, err := LocksOf(users)
	if err != nil {
		t.Fatalf("LocksOf: %v", err)
	}
	if locks.Exclusive != "" {
		t.Errorf("expected no lock held after commit, got %q", locks.Exclusive)
	}
}

func TestTransactionRollbackUndoesInsert(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")
	users.AddColumn("name", 10)

	tx := New(db)
	n, err := tx.Insert(users, table.Row{"name": "bob"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	row, err := users.ReadRow(n)
	if err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if row[table.DeletedColumnName] != table.DeletedTombstone {
		t.Errorf("expected inserted row to be tombstoned by rollback")
	}
}

func TestTransactionRollbackUndoesUpdate(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")
	users.AddColumn("name", 10)
	n, _ := users.Insert(table.Row{"name": "carol"})

	tx := New(db)
	if err := tx.Update(users, n, table.Row{"name": "dave"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	row, err := users.ReadRow(n)
	if err != nil {
		t.Fatalf("ReadRow: %v", err)
	}
	if got := row["name"]; got[:5] != "carol" {
		t.Errorf("expected name restored to carol, got %q", got)
	}
}

// =============================================================================
// LOCKING
// =============================================================================

func TestELockConflictsWithOtherExclusive(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")

	tx1 := New(db)
	if err := tx1.ELock(users); err != nil {
		t.Fatalf("tx1 ELock: %v", err)
	}

	tx2 := New(db)
	if err := tx2.ELock(users); err == nil {
		t.Errorf("expected second transaction's exclusive lock to conflict")
	}
}

func TestSLockAllowsMultipleHolders(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")

	tx1 := New(db)
	tx2 := New(db)
	if err := tx1.SLock(users); err != nil {
		t.Fatalf("tx1 SLock: %v", err)
	}
	if err := tx2.SLock(users); err != nil {
		t.Fatalf("tx2 SLock: %v", err)
	}

	locks, err := LocksOf(users)
	if err != nil {
		t.Fatalf("LocksOf: %v", err)
	}
	if len(locks.Shared) != 2 {
		t.Errorf("expected 2 shared holders, got %d", len(locks.Shared))
	}
}

func TestSLockConflictsWithExclusive(t *testing.T) {
	db := newTestDatabase(t)
	users, _ := db.NewTable("users")

	tx1 := New(db)
	if err := tx1.ELock(users); err != nil {
		t.Fatalf("tx1 ELock: %v", err)
	}

	tx2 := New(db)
	if err := tx2.SLock(users); err == nil {
		t.Errorf("expected shared lock to conflict with existing exclusive holder")
	}
}
