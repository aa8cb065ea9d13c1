package ra

import (
	"reldb/pkg/cell"
	"reldb/pkg/dberrors"
	"reldb/pkg/table"
)

// Select filters the view to rows where alias's cell, after dropping
// tombstoned rows, satisfies predicate(trimmedCell, param). The kept
// positions are then applied to every table in the view, not just the
// filtered one, which is what keeps joins positionally aligned.
func (v *View) Select(alias string, predicate cell.Predicate, param any) error {
	ref, ok := v.columns[alias]
	if !ok {
		return dberrors.New(dberrors.CodeRAError, "unknown alias").WithDetail(alias)
	}
	target := v.tables[ref.Table]

	kept := make([]int, 0, len(target.rowNumbers))
	for i, rn := range target.rowNumbers {
		row, err := target.ref.ReadRow(rn)
		if err != nil {
			return err
		}
		if cell.Trim(row[table.DeletedColumnName]) == table.DeletedTombstone {
			continue
		}
		if predicate(row[ref.Name], param) {
			kept = append(kept, i)
		}
	}

	for name, t := range v.tables {
		projected := make([]int, len(kept))
		for j, i := range kept {
			projected[j] = t.rowNumbers[i]
		}
		t.rowNumbers = projected
		v.tables[name] = t
	}
	return nil
}
