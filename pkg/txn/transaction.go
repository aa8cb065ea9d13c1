// Package txn provides the engine's unit of atomic work: a Transaction
// wraps rowop mutations with file-presence locking and an in-memory undo
// log, per spec.md §5.
package txn

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reldb/pkg/database"
	"reldb/pkg/dberrors"
	"reldb/pkg/dblog"
	"reldb/pkg/metrics"
	"reldb/pkg/rowop"
	"reldb/pkg/table"
)

type undoKind int

const (
	undoInsert undoKind = iota
	undoUpdate
	undoDelete
)

type undoEntry struct {
	kind   undoKind
	t      *table.Table
	row    int
	oldRow table.Row
}

// Transaction accumulates mutations against one or more tables, acquiring
// locks as it touches them and recording enough to undo every mutation on
// Rollback.
type Transaction struct {
	ID     float64
	db     *database.Database
	mu     sync.Mutex
	log    []undoEntry
	locked map[string]*table.Table
}

// New starts a transaction against db, identified by a monotonically
// increasing timestamp-derived id. Opening a transaction opportunistically
// sweeps every table's lock markers for stale (LockTimeout-expired)
// entries left by crashed transactions, concurrently across tables, so a
// long-idle table doesn't make every later locker pay the GC cost alone.
func New(db *database.Database) *Transaction {
	tx := &Transaction{
		ID:     float64(time.Now().UnixNano()) / 1e9,
		db:     db,
		locked: make(map[string]*table.Table),
	}
	tx.sweepLocks()
	return tx
}

func (tx *Transaction) sweepLocks() {
	names := tx.db.TableNames()
	g, _ := errgroup.WithContext(context.Background())
	for _, name := range names {
		name := name
		g.Go(func() error {
			t, err := tx.db.Table(name)
			if err != nil {
				return nil
			}
			if _, err := LocksOf(t); err != nil {
				dblog.WithTable(name).Debug("lock sweep failed", "error", err)
			}
			return nil
		})
	}
	g.Wait()
}

// failAndRollback rolls tx back after a rowop failure and re-raises err with
// operation context, per spec.md §4.7/§7: a failed delegated row operation
// must not leave earlier statements' mutations applied or locks held.
func (tx *Transaction) failAndRollback(t *table.Table, err error, operation string) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		dblog.WithTableTx(tx.ID, t.Name).Error("rollback after failed operation also failed", "operation", operation, "rollback_error", rbErr)
	}
	return dberrors.Wrap(err, dberrors.CodeIoError, operation, "txn")
}

// Insert runs rowop.Insert under an exclusive lock on t and records an undo
// entry on success.
func (tx *Transaction) Insert(t *table.Table, row table.Row) (int, error) {
	if err := tx.ELock(t); err != nil {
		return 0, err
	}

	n, err := rowop.Insert(tx.db, t, row)
	if err != nil {
		return 0, tx.failAndRollback(t, err, "Insert")
	}

	tx.mu.Lock()
	tx.log = append(tx.log, undoEntry{kind: undoInsert, t: t, row: n})
	tx.mu.Unlock()
	return n, nil
}

// Update runs rowop.Update under an exclusive lock on t and records an undo
// entry carrying the pre-mutation row.
func (tx *Transaction) Update(t *table.Table, n int, row table.Row) error {
	if err := tx.ELock(t); err != nil {
		return err
	}

	oldRow, err := rowop.Update(tx.db, t, n, row)
	if err != nil {
		return tx.failAndRollback(t, err, "Update")
	}

	tx.mu.Lock()
	tx.log = append(tx.log, undoEntry{kind: undoUpdate, t: t, row: n, oldRow: oldRow})
	tx.mu.Unlock()
	return nil
}

// DeleteRow runs rowop.Delete under an exclusive lock on t and records an
// undo entry carrying the pre-mutation row.
func (tx *Transaction) DeleteRow(t *table.Table, n int) error {
	if err := tx.ELock(t); err != nil {
		return err
	}

	oldRow, err := rowop.Delete(tx.db, t, n)
	if err != nil {
		return tx.failAndRollback(t, err, "DeleteRow")
	}

	tx.mu.Lock()
	tx.log = append(tx.log, undoEntry{kind: undoDelete, t: t, row: n, oldRow: oldRow})
	tx.mu.Unlock()
	return nil
}

// Rollback replays the undo log in reverse order, restoring every table
// this transaction touched to its pre-transaction state, then commits (to
// release locks and clear the log).
func (tx *Transaction) Rollback() error {
	tx.mu.Lock()
	log := tx.log
	tx.log = nil
	tx.mu.Unlock()

	metrics.RecordRollback()
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		var err error
		switch e.kind {
		case undoInsert:
			err = e.t.DeleteRow(e.row)
		case undoUpdate:
			err = e.t.Update(e.row, e.oldRow)
		case undoDelete:
			err = e.t.Restore(e.row)
		}
		if err != nil {
			dblog.WithTableTx(tx.ID, e.t.Name).Error("rollback step failed", "error", err)
			return err
		}
	}

	return tx.Commit()
}

// Commit releases every lock this transaction acquired and clears its undo
// log. A transaction whose mutations all succeeded calls Commit directly;
// one that needs to undo calls Rollback, which calls Commit itself once
// the undo log has been replayed.
func (tx *Transaction) Commit() error {
	tx.mu.Lock()
	locked := tx.locked
	tx.locked = make(map[string]*table.Table)
	tx.log = nil
	tx.mu.Unlock()

	var firstErr error
	for _, t := range locked {
		if err := tx.Unlock(t); err != nil {
			dblog.WithTableTx(tx.ID, t.Name).Warn("failed to release lock on commit", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
