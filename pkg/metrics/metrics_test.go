package metrics

import (
	"strings"
	"testing"
)

func TestRecordAndRender(t *testing.T) {
	before := Current()

	RecordInsert()
	RecordUpdate()
	RecordDelete()
	RecordTriggerFire()
	RecordLockConflict()
	RecordRollback()

	after := Current()
	if after.RowsInserted != before.RowsInserted+1 {
		t.Errorf("expected RowsInserted to increment by 1")
	}
	if after.Rollbacks != before.Rollbacks+1 {
		t.Errorf("expected Rollbacks to increment by 1")
	}

	rendered := Render()
	if !strings.Contains(rendered, "reldb_rows_inserted_total") {
		t.Errorf("expected rendered output to mention reldb_rows_inserted_total, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "reldb_up 1") {
		t.Errorf("expected reldb_up gauge in output")
	}
}
