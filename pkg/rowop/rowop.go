// Package rowop wraps a physical table mutation with a before-trigger pass
// and an after-trigger pass, per spec.md §4.6. It is the layer Transaction
// delegates to; rowop itself knows nothing about undo logs or locks.
package rowop

import (
	"reldb/pkg/cell"
	"reldb/pkg/database"
	"reldb/pkg/dblog"
	"reldb/pkg/ra"
	"reldb/pkg/table"
	"reldb/pkg/trigger"
)

const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// metaView builds a view over a reserved trigger meta-table, filtered down
// to rows naming tableName. Used identically for ~before and ~after.
func metaView(db *database.Database, metaTable, tableName string) (*ra.View, error) {
	v := ra.New(db)
	if err := v.PrepareTable(metaTable); err != nil {
		return nil, err
	}
	if err := v.Select("table", cell.Equals, tableName); err != nil {
		return nil, err
	}
	return v, nil
}

// Insert runs before-triggers, appends row, then after-triggers. If the
// after-trigger pass rejects the mutation, the appended row is tombstoned
// so the operation leaves no visible trace, and the rejection is returned.
func Insert(db *database.Database, t *table.Table, row table.Row) (int, error) {
	before, err := metaView(db, database.BeforeTable, t.Name)
	if err != nil {
		return 0, err
	}
	if err := trigger.ExecuteTrigger(db, t.Name, before, OpInsert, row, nil); err != nil {
		return 0, err
	}

	n, err := t.Insert(row)
	if err != nil {
		return 0, err
	}

	after, err := metaView(db, database.AfterTable, t.Name)
	if err != nil {
		return n, err
	}
	if err := trigger.ExecuteTrigger(db, t.Name, after, OpInsert, row, nil); err != nil {
		if revertErr := t.DeleteRow(n); revertErr != nil {
			dblog.WithTable(t.Name).Warn("failed to revert rejected insert", "row", n, "error", revertErr)
		}
		return n, err
	}

	return n, nil
}

// Update reads the old row, runs before-triggers, overwrites, then
// after-triggers. Returns the pre-mutation row, which the caller needs for
// undo logging. If after-triggers reject the mutation, the row is restored
// to its old values before the rejection is returned.
func Update(db *database.Database, t *table.Table, n int, newRow table.Row) (oldRow table.Row, err error) {
	oldRow, err = t.ReadRow(n)
	if err != nil {
		return nil, err
	}

	before, err := metaView(db, database.BeforeTable, t.Name)
	if err != nil {
		return oldRow, err
	}
	if err := trigger.ExecuteTrigger(db, t.Name, before, OpUpdate, oldRow, newRow); err != nil {
		return oldRow, err
	}

	if err := t.Update(n, newRow); err != nil {
		return oldRow, err
	}

	after, err := metaView(db, database.AfterTable, t.Name)
	if err != nil {
		return oldRow, err
	}
	if err := trigger.ExecuteTrigger(db, t.Name, after, OpUpdate, oldRow, newRow); err != nil {
		if revertErr := t.Update(n, oldRow); revertErr != nil {
			dblog.WithTable(t.Name).Warn("failed to revert rejected update", "row", n, "error", revertErr)
		}
		return oldRow, err
	}

	return oldRow, nil
}

// Delete reads the old row, runs before-triggers, tombstones the row, then
// after-triggers. Returns the pre-mutation row for undo logging. If
// after-triggers reject the mutation, the tombstone is lifted before the
// rejection is returned.
func Delete(db *database.Database, t *table.Table, n int) (oldRow table.Row, err error) {
	oldRow, err = t.ReadRow(n)
	if err != nil {
		return nil, err
	}

	before, err := metaView(db, database.BeforeTable, t.Name)
	if err != nil {
		return oldRow, err
	}
	if err := trigger.ExecuteTrigger(db, t.Name, before, OpDelete, oldRow, nil); err != nil {
		return oldRow, err
	}

	if err := t.DeleteRow(n); err != nil {
		return oldRow, err
	}

	after, err := metaView(db, database.AfterTable, t.Name)
	if err != nil {
		return oldRow, err
	}
	if err := trigger.ExecuteTrigger(db, t.Name, after, OpDelete, oldRow, nil); err != nil {
		if revertErr := t.Restore(n); revertErr != nil {
			dblog.WithTable(t.Name).Warn("failed to revert rejected delete", "row", n, "error", revertErr)
		}
		return oldRow, err
	}

	return oldRow, nil
}
