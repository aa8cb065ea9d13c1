package ra

import (
	"reldb/pkg/cell"
	"reldb/pkg/dberrors"
)

// NLJoin is a nested-loop equi-join: for every kept row of alias's table
// and every row of the table named name, the pair is kept iff neither row
// is tombstoned and alias's cell equals name.col's cell (after trimming).
// The resulting position pairs are applied to every table already in the
// view (re-indexed through the left side's matched positions), and name
// is registered with the right-side row numbers directly.
func (v *View) NLJoin(alias, name, col string) error {
	ref, ok := v.columns[alias]
	if !ok {
		return dberrors.New(dberrors.CodeRAError, "unknown alias").WithDetail(alias)
	}
	if _, exists := v.tables[name]; exists {
		return dberrors.New(dberrors.CodeRAError, "table already prepared in this view").WithDetail(name)
	}

	left := v.tables[ref.Table]
	right, err := v.db.Table(name)
	if err != nil {
		return err
	}
	rightCount, err := right.NumberOfRows()
	if err != nil {
		return err
	}

	var leftPositions, rightRows []int
	for i, rn1 := range left.rowNumbers {
		del1, err := isRowDeleted(left.ref, rn1)
		if err != nil {
			return err
		}
		if del1 {
			continue
		}
		row1, err := left.ref.ReadRow(rn1)
		if err != nil {
			return err
		}
		v1 := cell.Trim(row1[ref.Name])

		for rn2 := 0; rn2 < rightCount; rn2++ {
			del2, err := isRowDeleted(right, rn2)
			if err != nil {
				return err
			}
			if del2 {
				continue
			}
			row2, err := right.ReadRow(rn2)
			if err != nil {
				return err
			}
			if v1 != cell.Trim(row2[col]) {
				continue
			}
			leftPositions = append(leftPositions, i)
			rightRows = append(rightRows, rn2)
		}
	}

	for tableName, t := range v.tables {
		projected := make([]int, len(leftPositions))
		for j, i := range leftPositions {
			projected[j] = t.rowNumbers[i]
		}
		t.rowNumbers = projected
		v.tables[tableName] = t
	}

	v.tables[name] = tableRef{ref: right, rowNumbers: rightRows}
	for _, c := range right.Order {
		v.columns[c] = ColumnRef{Table: name, Name: c}
	}
	return nil
}
