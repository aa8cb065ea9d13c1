package table

import (
	"fmt"
	"strings"

	"reldb/pkg/dberrors"
	"reldb/pkg/dblog"
	"reldb/pkg/metrics"
)

// NumberOfRows returns the row count, including logically deleted
// (tombstoned) rows. Callers filter on ~del when they want the live count.
func (t *Table) NumberOfRows() (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.numberOfRowsLocked()
}

func (t *Table) numberOfRowsLocked() (int, error) {
	info, err := t.dataFile.Stat()
	if err != nil {
		return 0, dberrors.Wrap(err, dberrors.CodeIoError, "NumberOfRows", "table")
	}
	return int(info.Size()) / t.RowLength, nil
}

// rowOffset returns the byte offset of row n's first column.
func (t *Table) rowOffset(n int) int64 {
	return int64(n) * int64(t.RowLength)
}

// pad fits v into a field of the given width: space-padded on the right if
// shorter, truncated if longer.
func pad(v string, width int) string {
	if len(v) >= width {
		return v[:width]
	}
	return v + strings.Repeat(" ", width-len(v))
}

// ReadRow returns the raw, fixed-width cells of row n, keyed by column name.
func (t *Table) ReadRow(n int) (Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.readRowLocked(n)
}

func (t *Table) readRowLocked(n int) (Row, error) {
	count, err := t.numberOfRowsLocked()
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= count {
		return nil, dberrors.New(dberrors.CodeOutOfBounds, "row number out of range").
			WithDetail(fmt.Sprintf("row %d, count %d", n, count))
	}

	buf := make([]byte, t.RowLength)
	if _, err := t.dataFile.ReadAt(buf, t.rowOffset(n)); err != nil {
		return nil, dberrors.Wrap(err, dberrors.CodeIoError, "ReadRow", "table")
	}

	row := make(Row, len(t.Order))
	for _, name := range t.Order {
		col := t.Columns[name]
		row[name] = string(buf[col.Offset : col.Offset+col.Length])
	}
	return row, nil
}

// writeColumnAt pads/truncates v to the column's width and writes it at row
// n, column c's byte offset, independent of any file cursor.
func (t *Table) writeColumnAt(n int, c, v string) error {
	col, ok := t.Columns[c]
	if !ok {
		return dberrors.New(dberrors.CodeSchemaViolation, "unknown column").WithDetail(c)
	}
	offset := t.rowOffset(n) + int64(col.Offset)
	if _, err := t.dataFile.WriteAt([]byte(pad(v, col.Length)), offset); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "writeColumn", "table")
	}
	return nil
}

// isDeletedLocked reports whether row n's ~del cell is the tombstone value.
func (t *Table) isDeletedLocked(n int) (bool, error) {
	row, err := t.readRowLocked(n)
	if err != nil {
		return false, err
	}
	return cellIsTombstone(row[DeletedColumnName]), nil
}

func cellIsTombstone(raw string) bool {
	return strings.TrimSpace(raw) == DeletedTombstone
}

// Insert appends row as a new record: every schema column is written in
// order (empty string if absent from row), terminated by a newline, and
// the mutation is appended to the audit log.
func (t *Table) Insert(row Row) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, err := t.numberOfRowsLocked()
	if err != nil {
		return 0, err
	}

	for _, name := range t.Order {
		v, ok := row[name]
		if !ok {
			if name == DeletedColumnName {
				v = DeletedLive
			} else {
				v = ""
			}
		}
		if err := t.writeColumnAt(n, name, v); err != nil {
			return 0, err
		}
	}
	if _, err := t.dataFile.WriteAt([]byte("\n"), t.rowOffset(n)+int64(t.RowLength)-1); err != nil {
		return 0, dberrors.Wrap(err, dberrors.CodeIoError, "Insert", "table")
	}

	if err := t.appendLog(logInsert, hashRow(row)); err != nil {
		return 0, err
	}

	metrics.RecordInsert()
	dblog.WithTable(t.Name).Debug("row inserted", "row", n)
	return n, nil
}

// DeleteRow tombstones row n by setting ~del to "y". Fails if the table has
// no ~del column, n is out of range, or n is already tombstoned.
func (t *Table) DeleteRow(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteRowLocked(n, true)
}

// deleteRowLocked does the work of DeleteRow. checkTombstone selects whether
// an already-tombstoned row is rejected; DeleteRow, which transaction
// rollback also calls to undo an insert, always passes true.
func (t *Table) deleteRowLocked(n int, checkTombstone bool) error {
	if _, ok := t.Columns[DeletedColumnName]; !ok {
		return dberrors.New(dberrors.CodeSchemaViolation, "table has no ~del column")
	}

	count, err := t.numberOfRowsLocked()
	if err != nil {
		return err
	}
	if n < 0 || n >= count {
		return dberrors.New(dberrors.CodeOutOfBounds, "row number out of range").
			WithDetail(fmt.Sprintf("row %d, count %d", n, count))
	}

	if checkTombstone {
		deleted, err := t.isDeletedLocked(n)
		if err != nil {
			return err
		}
		if deleted {
			return dberrors.New(dberrors.CodeRowTombstoned, "row already deleted").
				WithDetail(fmt.Sprintf("row %d", n))
		}
	}

	if err := t.writeColumnAt(n, DeletedColumnName, DeletedTombstone); err != nil {
		return err
	}

	if err := t.appendLog(logDelete, fmt.Sprintf("%d", n)); err != nil {
		return err
	}
	metrics.RecordDelete()
	dblog.WithTable(t.Name).Debug("row deleted", "row", n)
	return nil
}

// Restore clears ~del back to a single space, undoing a logical delete.
// Used by transaction rollback to undo a delete, and by rowop.Delete to
// revert its own physical delete after the after-trigger pass rejects it. It
// bypasses the tombstone guard DeleteRow enforces.
func (t *Table) Restore(n int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.writeColumnAt(n, DeletedColumnName, DeletedLive)
}

// Update overwrites, for each column present in row, that cell in row n.
// Fails if n is out of range or already tombstoned.
func (t *Table) Update(n int, row Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updateLocked(n, row, true)
}

func (t *Table) updateLocked(n int, row Row, checkTombstone bool) error {
	count, err := t.numberOfRowsLocked()
	if err != nil {
		return err
	}
	if n < 0 || n >= count {
		return dberrors.New(dberrors.CodeOutOfBounds, "row number out of range").
			WithDetail(fmt.Sprintf("row %d, count %d", n, count))
	}

	if checkTombstone {
		deleted, err := t.isDeletedLocked(n)
		if err != nil {
			return err
		}
		if deleted {
			return dberrors.New(dberrors.CodeRowTombstoned, "row already deleted").
				WithDetail(fmt.Sprintf("row %d", n))
		}
	}

	for name, v := range row {
		if _, ok := t.Columns[name]; !ok {
			continue
		}
		if err := t.writeColumnAt(n, name, v); err != nil {
			return err
		}
	}

	if err := t.appendLog(logUpdate, fmt.Sprintf("%d %s", n, hashRow(row))); err != nil {
		return err
	}
	metrics.RecordUpdate()
	dblog.WithTable(t.Name).Debug("row updated", "row", n)
	return nil
}
