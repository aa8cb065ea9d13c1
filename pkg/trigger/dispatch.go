package trigger

import (
	"context"

	"golang.org/x/sync/errgroup"

	"reldb/pkg/cell"
	"reldb/pkg/database"
	"reldb/pkg/dberrors"
	"reldb/pkg/dblog"
	"reldb/pkg/metrics"
	"reldb/pkg/ra"
	"reldb/pkg/table"
)

// ExecuteTrigger fires every applicable trigger for a mutation. view must
// already be filtered down to the current operation's table (RA.Select on
// "table" equals T). For each (column, value) in row1, the applicable
// subset of view is selected by column/operation and every matching row's
// registered function is invoked.
//
// Columns are independent of each other, so their trigger evaluations run
// concurrently via an errgroup.Group. Every column's evaluation runs to
// completion; the first failure is the one returned.
func ExecuteTrigger(db *database.Database, tableName string, view *ra.View, op string, row1, row2 table.Row) error {
	g, _ := errgroup.WithContext(context.Background())

	for columnName := range row1 {
		columnName := columnName
		g.Go(func() error {
			return fireColumn(db, tableName, view, op, columnName, row1, row2)
		})
	}

	if err := g.Wait(); err != nil {
		dblog.WithTable(tableName).Warn("trigger rejected mutation", "op", op, "error", err)
		return err
	}
	return nil
}

func fireColumn(db *database.Database, tableName string, view *ra.View, op, columnName string, row1, row2 table.Row) error {
	scoped := view.Copy()
	if err := scoped.Select("column", cell.Equals, columnName); err != nil {
		return err
	}
	if err := scoped.Select("operation", cell.Equals, op); err != nil {
		return err
	}

	n := scoped.NumberOfRows()
	for i := 0; i < n; i++ {
		r, err := scoped.ReadRow(i)
		if err != nil {
			return err
		}

		key := cell.Trim(r["function"])
		fn, ok := Lookup(key)
		if !ok {
			return dberrors.New(dberrors.CodeSchemaViolation, "unregistered trigger function").
				WithDetail(key)
		}

		params := Params{
			Table:  tableName,
			Column: columnName,
			Op:     op,
			Row1:   row1,
			Row2:   row2,
			Extra:  splitParameters(r["parameters"]),
			DB:     db,
		}
		if err := fn(params); err != nil {
			return err
		}
		metrics.RecordTriggerFire()
		dblog.WithTable(tableName).Debug("trigger fired", "column", columnName, "function", key, "op", op)
	}
	return nil
}
