package ra

import (
	"reldb/pkg/dberrors"
)

// Cross computes the Cartesian product of table name with the current
// view. Every existing table's row-number sequence is tiled m times (m =
// number of rows in name); name's own sequence repeats each of its row
// numbers k times consecutively (k = the view's prior common length),
// producing aligned (left-row, right-row) pairs.
func (v *View) Cross(name string) error {
	if _, exists := v.tables[name]; exists {
		return dberrors.New(dberrors.CodeRAError, "table already prepared in this view").WithDetail(name)
	}

	t, err := v.db.Table(name)
	if err != nil {
		return err
	}
	m, err := t.NumberOfRows()
	if err != nil {
		return err
	}

	k := 1
	for _, ref := range v.tables {
		k = len(ref.rowNumbers)
		break
	}

	for tableName, ref := range v.tables {
		tiled := make([]int, 0, m*k)
		for rep := 0; rep < m; rep++ {
			tiled = append(tiled, ref.rowNumbers...)
		}
		ref.rowNumbers = tiled
		v.tables[tableName] = ref
	}

	newSeq := make([]int, 0, m*k)
	for rn := 0; rn < m; rn++ {
		for j := 0; j < k; j++ {
			newSeq = append(newSeq, rn)
		}
	}
	v.tables[name] = tableRef{ref: t, rowNumbers: newSeq}

	for _, col := range t.Order {
		v.columns[col] = ColumnRef{Table: name, Name: col}
	}
	return nil
}
