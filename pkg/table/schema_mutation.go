package table

import (
	"fmt"
	"os"
	"time"

	"reldb/pkg/dberrors"
	"reldb/pkg/dblog"
)

// AddColumn registers a new fixed-width column. If the table is currently
// empty the schema is updated in place (cheap append to .def); otherwise
// every row must be copied forward, so a rebuild is triggered.
func (t *Table) AddColumn(name string, length int) error {
	if err := validateColumnName(name); err != nil {
		return err
	}

	t.mu.Lock()
	if _, exists := t.Columns[name]; exists {
		t.mu.Unlock()
		return dberrors.New(dberrors.CodeSchemaViolation, "column already exists").WithDetail(name)
	}

	count, err := t.numberOfRowsLocked()
	if err != nil {
		t.mu.Unlock()
		return err
	}

	if count == 0 {
		newOrder := append(append([]string{}, t.Order...), name)
		newColumns := cloneColumns(t.Columns)
		newColumns[name] = Column{Name: name, Length: length}
		computeOffsets(newOrder, newColumns)

		if err := appendDefLine(t.defPath, name, length); err != nil {
			t.mu.Unlock()
			return err
		}

		t.Order = newOrder
		t.Columns = newColumns
		t.RowLength = rowLength(newOrder, newColumns)
		err := t.appendLog(logAddColumn, name)
		t.mu.Unlock()
		if err != nil {
			return err
		}
		dblog.WithTable(t.Name).Debug("column added in place", "column", name)
		return nil
	}
	t.mu.Unlock()

	if err := t.rebuildDataFile("", name, length); err != nil {
		return err
	}
	if err := t.appendLog(logAddColumn, name); err != nil {
		return err
	}
	dblog.WithTable(t.Name).Debug("column added via rebuild", "column", name)
	return nil
}

// DeleteColumn removes a column. The reserved ~del column can never be
// dropped. If the table is empty the schema is updated in place;
// otherwise every row is rebuilt without that column's data.
func (t *Table) DeleteColumn(name string) error {
	if name == DeletedColumnName {
		return dberrors.New(dberrors.CodeSchemaViolation, "cannot delete reserved column").
			WithDetail(name)
	}

	t.mu.Lock()
	if _, exists := t.Columns[name]; !exists {
		t.mu.Unlock()
		return dberrors.New(dberrors.CodeSchemaViolation, "unknown column").WithDetail(name)
	}

	count, err := t.numberOfRowsLocked()
	if err != nil {
		t.mu.Unlock()
		return err
	}

	if count == 0 {
		newOrder := make([]string, 0, len(t.Order)-1)
		for _, n := range t.Order {
			if n != name {
				newOrder = append(newOrder, n)
			}
		}
		newColumns := cloneColumns(t.Columns)
		delete(newColumns, name)
		computeOffsets(newOrder, newColumns)

		if err := removeDefLine(t.defPath, t.Order, t.Columns, name); err != nil {
			t.mu.Unlock()
			return err
		}

		t.Order = newOrder
		t.Columns = newColumns
		t.RowLength = rowLength(newOrder, newColumns)
		err := t.appendLog(logDeleteColumn, name)
		t.mu.Unlock()
		if err != nil {
			return err
		}
		dblog.WithTable(t.Name).Debug("column deleted in place", "column", name)
		return nil
	}
	t.mu.Unlock()

	if err := t.rebuildDataFile(name, "", 0); err != nil {
		return err
	}
	if err := t.appendLog(logDeleteColumn, name); err != nil {
		return err
	}
	dblog.WithTable(t.Name).Debug("column deleted via rebuild", "column", name)
	return nil
}

func cloneColumns(columns map[string]Column) map[string]Column {
	out := make(map[string]Column, len(columns))
	for k, v := range columns {
		out[k] = v
	}
	return out
}

// rebuildDataFile is the schema-change protocol: build a throwaway sibling
// table with the new schema (dropping dropCol and/or adding addCol, if
// given), copy every live row across, then swap the temp table in under
// the original name and reopen file handles.
func (t *Table) rebuildDataFile(dropCol, addCol string, addLen int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	newOrder := make([]string, 0, len(t.Order)+1)
	for _, name := range t.Order {
		if name != dropCol {
			newOrder = append(newOrder, name)
		}
	}
	newColumns := make(map[string]Column, len(newOrder)+1)
	for _, name := range newOrder {
		newColumns[name] = t.Columns[name]
	}
	if addCol != "" {
		newOrder = append(newOrder, addCol)
		newColumns[addCol] = Column{Name: addCol, Length: addLen}
	}
	computeOffsets(newOrder, newColumns)

	tmpName := fmt.Sprintf("~%d", time.Now().UnixNano())
	tmp, err := createBare(t.owner, tmpName, newOrder, newColumns)
	if err != nil {
		return err
	}

	count, err := t.numberOfRowsLocked()
	if err != nil {
		tmp.Close()
		removeTableFiles(tmp)
		return err
	}

	for n := 0; n < count; n++ {
		row, err := t.readRowLocked(n)
		if err != nil {
			tmp.Close()
			removeTableFiles(tmp)
			return err
		}
		if cellIsTombstone(row[DeletedColumnName]) {
			continue
		}
		if _, err := tmp.Insert(row); err != nil {
			tmp.Close()
			removeTableFiles(tmp)
			return err
		}
	}

	if err := t.dataFile.Close(); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "rebuildDataFile", "table")
	}
	if err := t.logFile.Close(); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "rebuildDataFile", "table")
	}
	if err := tmp.Close(); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "rebuildDataFile", "table")
	}

	removeTableFiles(t)

	if err := os.Rename(tmp.defPath, t.defPath); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "rebuildDataFile", "table")
	}
	if err := os.Rename(tmp.dataPath, t.dataPath); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "rebuildDataFile", "table")
	}
	if err := os.Rename(tmp.logPath, t.logPath); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "rebuildDataFile", "table")
	}

	t.Order = newOrder
	t.Columns = newColumns
	t.RowLength = rowLength(newOrder, newColumns)

	if err := t.reopen(); err != nil {
		return err
	}

	dblog.WithTable(t.Name).Debug("rebuild complete", "rows", count)
	return nil
}

// createBare writes a table's three files directly, without the reserved
// ~del auto-add or existence checks Create performs: used only to build
// the throwaway sibling table a rebuild copies rows into.
func createBare(owner Owner, name string, order []string, columns map[string]Column) (*Table, error) {
	dir := owner.Dir()
	defPath, dataPath, logPath := paths(dir, name)

	if err := rewriteDef(defPath, order, columns); err != nil {
		return nil, err
	}
	if err := os.WriteFile(dataPath, nil, 0o644); err != nil {
		return nil, dberrors.Wrap(err, dberrors.CodeIoError, "createBare", "table")
	}
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		return nil, dberrors.Wrap(err, dberrors.CodeIoError, "createBare", "table")
	}

	return open(owner, name)
}

func removeTableFiles(t *Table) {
	os.Remove(t.defPath)
	os.Remove(t.dataPath)
	os.Remove(t.logPath)
}
