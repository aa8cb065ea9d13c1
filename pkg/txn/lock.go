package txn

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reldb/pkg/dberrors"
	"reldb/pkg/dblog"
	"reldb/pkg/metrics"
	"reldb/pkg/table"
	"reldb/pkg/txn/filelock"
)

// LockTimeout is how long a lock marker may go unrefreshed before the next
// LocksOf call garbage-collects it (spec.md §5, LOCK_TIMEOUT = 300s).
// Overridable at startup via pkg/config.
var LockTimeout = 300 * time.Second

// Locks is the lock state a table currently holds, per spec.md §9: a
// shared-holder list plus the exclusive holder's id (or "").
type Locks struct {
	Shared    []string
	Exclusive string
}

func (l Locks) hasShared(id string) bool {
	for _, s := range l.Shared {
		if s == id {
			return true
		}
	}
	return false
}

func idString(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}

// LocksOf scans a table's lock directory/file, evicting any marker older
// than LockTimeout, and returns the surviving holders.
func LocksOf(t *table.Table) (Locks, error) {
	var locks Locks

	entries, err := os.ReadDir(t.SharedDir())
	if err != nil {
		return locks, dberrors.Wrap(err, dberrors.CodeIoError, "LocksOf", "txn")
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > LockTimeout {
			os.Remove(filepath.Join(t.SharedDir(), e.Name()))
			continue
		}
		locks.Shared = append(locks.Shared, e.Name())
	}

	exclusivePath := t.ExclusivePath()
	if info, err := os.Stat(exclusivePath); err == nil {
		if time.Since(info.ModTime()) > LockTimeout {
			os.Remove(exclusivePath)
		} else {
			data, err := os.ReadFile(exclusivePath)
			if err == nil {
				locks.Exclusive = strings.TrimSpace(string(data))
			}
		}
	}

	return locks, nil
}

// ELock acquires an exclusive lock on t, allowed iff no other transaction
// holds any shared or exclusive lock. If this transaction already holds a
// shared lock, it is dropped first (downgrade-then-upgrade).
func (tx *Transaction) ELock(t *table.Table) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	guard, gerr := filelock.Acquire(t.SharedDir())
	if gerr != nil {
		dblog.WithLock(tx.ID, t.Name).Debug("os-level lock guard unavailable", "error", gerr)
	}
	defer guard.Release()

	id := idString(tx.ID)
	locks, err := LocksOf(t)
	if err != nil {
		return err
	}

	for _, s := range locks.Shared {
		if s != id {
			metrics.RecordLockConflict()
			return dberrors.New(dberrors.CodeLockConflict, "table has a shared lock holder").
				WithDetail(t.Name)
		}
	}
	if locks.Exclusive != "" && locks.Exclusive != id {
		metrics.RecordLockConflict()
		return dberrors.New(dberrors.CodeLockConflict, "table already exclusively locked").
			WithDetail(t.Name)
	}

	if locks.hasShared(id) {
		if err := tx.unlockLocked(t); err != nil {
			return err
		}
	}

	if err := os.WriteFile(t.ExclusivePath(), []byte(id), 0o644); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "ELock", "txn")
	}
	tx.locked[t.Name] = t
	dblog.WithLock(tx.ID, t.Name).Debug("exclusive lock acquired")
	return nil
}

// SLock acquires a shared lock on t, allowed iff no other transaction
// holds the exclusive lock. If this transaction holds the exclusive lock,
// it is dropped first.
func (tx *Transaction) SLock(t *table.Table) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	guard, gerr := filelock.Acquire(t.SharedDir())
	if gerr != nil {
		dblog.WithLock(tx.ID, t.Name).Debug("os-level lock guard unavailable", "error", gerr)
	}
	defer guard.Release()

	id := idString(tx.ID)
	locks, err := LocksOf(t)
	if err != nil {
		return err
	}

	if locks.Exclusive != "" && locks.Exclusive != id {
		metrics.RecordLockConflict()
		return dberrors.New(dberrors.CodeLockConflict, "table already exclusively locked").
			WithDetail(t.Name)
	}

	if locks.Exclusive == id {
		if err := tx.unlockLocked(t); err != nil {
			return err
		}
	}

	sharedPath := filepath.Join(t.SharedDir(), id)
	if err := os.WriteFile(sharedPath, nil, 0o644); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "SLock", "txn")
	}
	tx.locked[t.Name] = t
	dblog.WithLock(tx.ID, t.Name).Debug("shared lock acquired")
	return nil
}

// Unlock releases whichever lock (shared or exclusive) this transaction
// holds on t.
func (tx *Transaction) Unlock(t *table.Table) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.unlockLocked(t)
}

func (tx *Transaction) unlockLocked(t *table.Table) error {
	id := idString(tx.ID)
	locks, err := LocksOf(t)
	if err != nil {
		return err
	}

	if locks.Exclusive == id {
		if err := os.Remove(t.ExclusivePath()); err != nil && !os.IsNotExist(err) {
			return dberrors.Wrap(err, dberrors.CodeIoError, "Unlock", "txn")
		}
	} else if locks.hasShared(id) {
		if err := os.Remove(filepath.Join(t.SharedDir(), id)); err != nil && !os.IsNotExist(err) {
			return dberrors.Wrap(err, dberrors.CodeIoError, "Unlock", "txn")
		}
	}

	delete(tx.locked, t.Name)
	return nil
}
