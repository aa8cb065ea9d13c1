package trigger

import (
	"testing"

	"reldb/pkg/database"
	"reldb/pkg/ra"
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

func TestExecuteTriggerInvokesRegisteredFunction(t *testing.T) {
	db := newTestDatabase(t)
	orders, err := db.NewTable("orders")
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if err := orders.AddColumn("status", 10); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}

	called := false
	Register("test_marker", func(p Params) error {
		called = true
		if p.Column != "status" {
			t.Errorf("expected column 'status', got %q", p.Column)
		}
		return nil
	})

	before, err := db.Table(database.BeforeTable)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if _, err := before.Insert(table.Row{
		"table": "orders", "column": "status", "operation": "insert", "function": "test_marker",
	}); err != nil {
		t.Fatalf("insert trigger row: %v", err)
	}

	v := ra.New(db)
	if err := v.PrepareTable(database.BeforeTable); err != nil {
		t.Fatalf("PrepareTable: %v", err)
	}

	if err := ExecuteTrigger(db, "orders", v, "insert", table.Row{"status": "new"}, nil); err != nil {
		t.Fatalf("ExecuteTrigger: %v", err)
	}
	if !called {
		t.Errorf("expected registered trigger function to be invoked")
	}
}

func TestExecuteTriggerPropagatesRejection(t *testing.T) {
	db := newTestDatabase(t)
	orders, err := db.NewTable("orders")
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	orders.AddColumn("status", 10)

	Register("test_reject", func(p Params) error {
		return errRejected
	})

	before, _ := db.Table(database.BeforeTable)
	before.Insert(table.Row{
		"table": "orders", "column": "status", "operation": "insert", "function": "test_reject",
	})

	v := ra.New(db)
	v.PrepareTable(database.BeforeTable)

	err = ExecuteTrigger(db, "orders", v, "insert", table.Row{"status": "new"}, nil)
	if err == nil {
		t.Fatalf("expected rejection to propagate")
	}
}

type testError string

func (e testError) Error() string { return string(e) }

var errRejected = testError("rejected")
