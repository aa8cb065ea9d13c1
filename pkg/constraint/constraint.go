// Package constraint registers and removes primary-key/foreign-key
// constraints, which are just rows in the reserved ~before trigger
// meta-table (spec.md §3, "Constraint registration"); ~after is not used.
package constraint

import (
	"strings"

	"reldb/pkg/cell"
	"reldb/pkg/database"
	"reldb/pkg/ra"
	"reldb/pkg/rowop"
	"reldb/pkg/table"
)

func metaRow(tableName, column, op, function, parameters string) table.Row {
	return table.Row{
		"table":      tableName,
		"column":     column,
		"operation":  op,
		"function":   function,
		"parameters": parameters,
	}
}

// PK registers a primary-key constraint on (tableName, column): uniqueness
// is checked on both insert and update.
func PK(db *database.Database, tableName, column string) error {
	before, err := db.Table(database.BeforeTable)
	if err != nil {
		return err
	}
	for _, op := range []string{"insert", "update"} {
		if _, err := rowop.Insert(db, before, metaRow(tableName, column, op, "pk", "")); err != nil {
			return err
		}
	}
	return nil
}

// FK registers a foreign-key constraint: childTable.childColumn must refer
// to a live row of parentTable.parentColumn. Inserts/updates on the child
// are checked against the parent (fk); updates/deletes on the parent are
// restricted while a live child still refers to the old value.
func FK(db *database.Database, childTable, childColumn, parentTable, parentColumn string) error {
	before, err := db.Table(database.BeforeTable)
	if err != nil {
		return err
	}

	parentParams := parentTable + ";" + parentColumn
	for _, op := range []string{"insert", "update"} {
		if _, err := rowop.Insert(db, before, metaRow(childTable, childColumn, op, "fk", parentParams)); err != nil {
			return err
		}
	}

	// update_restricted/delete_restricted block the parent mutation outright,
	// so they belong in ~before alongside pk/fk rather than ~after: there is
	// nothing to undo, the mutation must never happen.
	childParams := childTable + ";" + childColumn
	if _, err := rowop.Insert(db, before, metaRow(parentTable, parentColumn, "update", "update_restricted", childParams)); err != nil {
		return err
	}
	if _, err := rowop.Insert(db, before, metaRow(parentTable, parentColumn, "delete", "delete_restricted", childParams)); err != nil {
		return err
	}
	return nil
}

// RemovePK removes a previously registered PK constraint, matching on
// (table, column, function=pk) — the broader variant per spec.md §9.
func RemovePK(db *database.Database, tableName, column string) error {
	before, err := db.Table(database.BeforeTable)
	if err != nil {
		return err
	}
	return deleteMatching(db, before, map[string]string{
		"table":    tableName,
		"column":   column,
		"function": "pk",
	})
}

// RemoveFK removes a previously registered FK constraint's four rows.
func RemoveFK(db *database.Database, childTable, childColumn, parentTable, parentColumn string) error {
	before, err := db.Table(database.BeforeTable)
	if err != nil {
		return err
	}

	if err := deleteMatching(db, before, map[string]string{
		"table":    childTable,
		"column":   childColumn,
		"function": "fk",
	}); err != nil {
		return err
	}

	parentParams := strings.TrimSpace(childTable + ";" + childColumn)
	return deleteMatching(db, before, map[string]string{
		"table":      parentTable,
		"column":     parentColumn,
		"parameters": parentParams,
	})
}

// deleteMatching finds every meta-table row matching filters (exact,
// trimmed equality on each named column) and tombstones it.
func deleteMatching(db *database.Database, meta *table.Table, filters map[string]string) error {
	v := ra.New(db)
	if err := v.PrepareTable(meta.Name); err != nil {
		return err
	}
	for column, value := range filters {
		if err := v.Select(column, cell.Equals, value); err != nil {
			return err
		}
	}

	rowNumbers, err := v.TableRowNumbers(meta.Name)
	if err != nil {
		return err
	}
	for _, n := range rowNumbers {
		if _, err := rowop.Delete(db, meta, n); err != nil {
			return err
		}
	}
	return nil
}
