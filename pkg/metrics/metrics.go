// Package metrics holds the engine's process-wide counters and renders
// them in Prometheus text format, grounded in the teacher's hand-rolled
// MetricsCollector (monitoring/exporter/metrics_exporter.go) rather than a
// real Prometheus client library, which the teacher doesn't import either.
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
)

var (
	rowsInserted  int64
	rowsUpdated   int64
	rowsDeleted   int64
	triggerFires  int64
	lockConflicts int64
	rollbacks     int64
)

// RecordInsert counts one physical row insert.
func RecordInsert() { atomic.AddInt64(&rowsInserted, 1) }

// RecordUpdate counts one physical row update.
func RecordUpdate() { atomic.AddInt64(&rowsUpdated, 1) }

// RecordDelete counts one physical row tombstone.
func RecordDelete() { atomic.AddInt64(&rowsDeleted, 1) }

// RecordTriggerFire counts one successful trigger function invocation.
func RecordTriggerFire() { atomic.AddInt64(&triggerFires, 1) }

// RecordLockConflict counts one rejected lock acquisition.
func RecordLockConflict() { atomic.AddInt64(&lockConflicts, 1) }

// RecordRollback counts one transaction rollback.
func RecordRollback() { atomic.AddInt64(&rollbacks, 1) }

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	RowsInserted  int64
	RowsUpdated   int64
	RowsDeleted   int64
	TriggerFires  int64
	LockConflicts int64
	Rollbacks     int64
}

// Current reads every counter without resetting it.
func Current() Snapshot {
	return Snapshot{
		RowsInserted:  atomic.LoadInt64(&rowsInserted),
		RowsUpdated:   atomic.LoadInt64(&rowsUpdated),
		RowsDeleted:   atomic.LoadInt64(&rowsDeleted),
		TriggerFires:  atomic.LoadInt64(&triggerFires),
		LockConflicts: atomic.LoadInt64(&lockConflicts),
		Rollbacks:     atomic.LoadInt64(&rollbacks),
	}
}

// Render formats the current snapshot as Prometheus exposition text.
func Render() string {
	s := Current()
	var b strings.Builder

	write := func(name, help, typ string, value int64) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", name, help, name, typ, name, value)
	}

	write("reldb_rows_inserted_total", "Total rows physically inserted", "counter", s.RowsInserted)
	write("reldb_rows_updated_total", "Total rows physically updated", "counter", s.RowsUpdated)
	write("reldb_rows_deleted_total", "Total rows tombstoned", "counter", s.RowsDeleted)
	write("reldb_trigger_fires_total", "Total trigger functions invoked", "counter", s.TriggerFires)
	write("reldb_lock_conflicts_total", "Total rejected lock acquisitions", "counter", s.LockConflicts)
	write("reldb_rollbacks_total", "Total transaction rollbacks", "counter", s.Rollbacks)
	fmt.Fprintf(&b, "# HELP reldb_up Engine up status\n# TYPE reldb_up gauge\nreldb_up 1\n")

	return b.String()
}
