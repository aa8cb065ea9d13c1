package trigger

import (
	"fmt"
	"strings"

	"reldb/pkg/cell"
	"reldb/pkg/dberrors"
	"reldb/pkg/table"
)

// newValue returns the value a PK/FK trigger should check: the inserted
// row's value on insert, the updated row's new value on update.
func newValue(p Params) string {
	if p.Op == "update" && p.Row2 != nil {
		return p.Row2[p.Column]
	}
	return p.Row1[p.Column]
}

// scanColumn returns the trimmed, non-tombstoned values of one column
// across an entire table.
func scanColumn(t *table.Table, column string) ([]string, error) {
	count, err := t.NumberOfRows()
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, count)
	for n := 0; n < count; n++ {
		row, err := t.ReadRow(n)
		if err != nil {
			return nil, err
		}
		if cell.Trim(row[table.DeletedColumnName]) == table.DeletedTombstone {
			continue
		}
		values = append(values, cell.Trim(row[column]))
	}
	return values, nil
}

// pk enforces uniqueness: the new value must not already appear, live, in
// params.Table.params.Column.
func pk(p Params) error {
	t, err := p.DB.Table(p.Table)
	if err != nil {
		return err
	}
	value := cell.Trim(newValue(p))

	values, err := scanColumn(t, p.Column)
	if err != nil {
		return err
	}
	for _, v := range values {
		if v == value {
			return dberrors.New(dberrors.CodeConstraintViolate, "primary key violation").
				WithDetail(fmt.Sprintf("%s.%s = %q already exists", p.Table, p.Column, value))
		}
	}
	return nil
}

// fk enforces referential integrity against a parent table/column, named
// by Extra[0];Extra[1]. It reproduces the documented source bug (see
// spec.md §9): on update it reads Row1, the *old* value, not Row2.
func fk(p Params) error {
	return checkFK(p, p.Row1[p.Column])
}

// fkStrict is the corrected variant: it always checks the value the
// mutation is introducing, using Row2 on update as the spec's intended
// semantics describe. Not registered for "fk" so the documented bug's
// on-disk behavior is preserved; available for callers/tests that want
// the fixed semantics.
func fkStrict(p Params) error {
	return checkFK(p, newValue(p))
}

func checkFK(p Params, value string) error {
	if len(p.Extra) < 2 {
		return dberrors.New(dberrors.CodeSchemaViolation, "fk trigger missing parent table/column")
	}
	parentTable, parentColumn := p.Extra[0], p.Extra[1]

	parent, err := p.DB.Table(parentTable)
	if err != nil {
		return err
	}

	values, err := scanColumn(parent, parentColumn)
	if err != nil {
		return err
	}
	trimmed := cell.Trim(value)
	for _, v := range values {
		if v == trimmed {
			return nil
		}
	}
	return dberrors.New(dberrors.CodeConstraintViolate, "foreign key violation").
		WithDetail(fmt.Sprintf("%s.%s = %q has no parent in %s.%s", p.Table, p.Column, trimmed, parentTable, parentColumn))
}

// updateRestricted and deleteRestricted guard a parent row's update/delete
// when a child table still references its old value, named by
// Extra[0];Extra[1].
func updateRestricted(p Params) error {
	return checkRestricted(p)
}

func deleteRestricted(p Params) error {
	return checkRestricted(p)
}

func checkRestricted(p Params) error {
	if len(p.Extra) < 2 {
		return dberrors.New(dberrors.CodeSchemaViolation, "restriction trigger missing child table/column")
	}
	childTable, childColumn := p.Extra[0], p.Extra[1]

	child, err := p.DB.Table(childTable)
	if err != nil {
		return err
	}

	oldValue := cell.Trim(p.Row1[p.Column])
	values, err := scanColumn(child, childColumn)
	if err != nil {
		return err
	}
	for _, v := range values {
		if v == oldValue {
			return dberrors.New(dberrors.CodeConstraintViolate, "restricted by child reference").
				WithDetail(fmt.Sprintf("%s.%s = %q is still referenced by %s.%s", p.Table, p.Column, oldValue, childTable, childColumn))
		}
	}
	return nil
}

// splitParameters splits a trigger meta-row's semicolon-separated
// parameters field, skipping the sentinel empty string a blank field
// parses to.
func splitParameters(raw string) []string {
	trimmed := cell.Trim(raw)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ";")
}
