// Package ra implements the relational-algebra evaluator: lazy,
// positionally-aligned row-index views over one or more tables. A View
// never materializes intermediate rows; it tracks, per referenced table,
// an ordered sequence of row numbers, with every table's sequence kept the
// same length and positionally aligned to every other table's.
package ra

import (
	"reldb/pkg/cell"
	"reldb/pkg/database"
	"reldb/pkg/dberrors"
	"reldb/pkg/table"
)

// ColumnRef resolves an alias back to its owning table and underlying
// column name.
type ColumnRef struct {
	Table string
	Name  string
}

// tableRef is one table's kept row numbers within a view. It is stored by
// value (not pointer) so that View.Copy's shallow map copy is enough to
// let one view's Select rebind rowNumbers without disturbing another's.
type tableRef struct {
	ref        *table.Table
	rowNumbers []int
}

// View is a per-query, lazily-evaluated set of joined/filtered tables.
type View struct {
	db      *database.Database
	tables  map[string]tableRef
	columns map[string]ColumnRef
}

// New creates an empty view over db. Use PrepareTable, Cross, or NLJoin to
// bring tables into scope.
func New(db *database.Database) *View {
	return &View{
		db:      db,
		tables:  make(map[string]tableRef),
		columns: make(map[string]ColumnRef),
	}
}

// PrepareTable registers t's every row as the view's starting point and
// imports every one of its columns as a same-named alias. Fails if a table
// of that name is already in the view.
func (v *View) PrepareTable(name string) error {
	if _, exists := v.tables[name]; exists {
		return dberrors.New(dberrors.CodeRAError, "table already prepared in this view").WithDetail(name)
	}

	t, err := v.db.Table(name)
	if err != nil {
		return err
	}

	count, err := t.NumberOfRows()
	if err != nil {
		return err
	}

	rowNumbers := make([]int, count)
	for i := range rowNumbers {
		rowNumbers[i] = i
	}
	v.tables[name] = tableRef{ref: t, rowNumbers: rowNumbers}

	for _, col := range t.Order {
		v.columns[col] = ColumnRef{Table: name, Name: col}
	}
	return nil
}

// Redefine renames an alias. Fails if new already exists or old is absent.
func (v *View) Redefine(oldAlias, newAlias string) error {
	ref, ok := v.columns[oldAlias]
	if !ok {
		return dberrors.New(dberrors.CodeRAError, "unknown alias").WithDetail(oldAlias)
	}
	if _, exists := v.columns[newAlias]; exists {
		return dberrors.New(dberrors.CodeRAError, "alias already in use").WithDetail(newAlias)
	}
	delete(v.columns, oldAlias)
	v.columns[newAlias] = ref
	return nil
}

// Project keeps only the named aliases, dropping every other one. A table
// entry is dropped entirely once no alias refers to it any more.
func (v *View) Project(aliases []string) error {
	keep := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		if _, ok := v.columns[a]; !ok {
			return dberrors.New(dberrors.CodeRAError, "unknown alias").WithDetail(a)
		}
		keep[a] = true
	}

	stillReferenced := make(map[string]bool)
	for alias, ref := range v.columns {
		if keep[alias] {
			stillReferenced[ref.Table] = true
		} else {
			delete(v.columns, alias)
		}
	}

	for tableName := range v.tables {
		if !stillReferenced[tableName] {
			delete(v.tables, tableName)
		}
	}
	return nil
}

// Copy returns a view whose two maps can be mutated independently of v's.
// Because tableRef is a value type, copying the map is enough: Select
// rebinds rowNumbers wholesale rather than mutating a shared backing array.
func (v *View) Copy() *View {
	tables := make(map[string]tableRef, len(v.tables))
	for k, val := range v.tables {
		tables[k] = val
	}
	columns := make(map[string]ColumnRef, len(v.columns))
	for k, val := range v.columns {
		columns[k] = val
	}
	return &View{db: v.db, tables: tables, columns: columns}
}

// NumberOfRows returns the shared length of every table's row-number
// sequence (zero if the view holds no tables).
func (v *View) NumberOfRows() int {
	for _, ref := range v.tables {
		return len(ref.rowNumbers)
	}
	return 0
}

// ReadRow assembles one result row by reading, for every column in the
// view, the cell at that column's table's i-th kept row number.
func (v *View) ReadRow(i int) (table.Row, error) {
	result := make(table.Row, len(v.columns))
	for alias, ref := range v.columns {
		t := v.tables[ref.Table]
		row, err := t.ref.ReadRow(t.rowNumbers[i])
		if err != nil {
			return nil, err
		}
		result[alias] = row[ref.Name]
	}
	return result, nil
}

// RowNumbers returns the kept row numbers (into the underlying table) for
// the table behind alias, in view order.
func (v *View) RowNumbers(alias string) ([]int, error) {
	ref, ok := v.columns[alias]
	if !ok {
		return nil, dberrors.New(dberrors.CodeRAError, "unknown alias").WithDetail(alias)
	}
	t, ok := v.tables[ref.Table]
	if !ok {
		return nil, dberrors.New(dberrors.CodeRAError, "table not in view").WithDetail(ref.Table)
	}
	out := make([]int, len(t.rowNumbers))
	copy(out, t.rowNumbers)
	return out, nil
}

// TableRowNumbers returns the kept row numbers for a table registered
// directly by name (as opposed to via a column alias).
func (v *View) TableRowNumbers(name string) ([]int, error) {
	t, ok := v.tables[name]
	if !ok {
		return nil, dberrors.New(dberrors.CodeRAError, "table not in view").WithDetail(name)
	}
	out := make([]int, len(t.rowNumbers))
	copy(out, t.rowNumbers)
	return out, nil
}

// Aliases returns every column alias currently visible in the view, in no
// particular order. Used by callers (the inspector, script results) that
// need to render a view without knowing its shape ahead of time.
func (v *View) Aliases() []string {
	out := make([]string, 0, len(v.columns))
	for alias := range v.columns {
		out = append(out, alias)
	}
	return out
}

func isRowDeleted(t *table.Table, n int) (bool, error) {
	row, err := t.ReadRow(n)
	if err != nil {
		return false, err
	}
	return cell.Trim(row[table.DeletedColumnName]) == table.DeletedTombstone, nil
}
