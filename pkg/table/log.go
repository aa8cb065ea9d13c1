package table

import (
	"fmt"
	"hash/fnv"
	"time"

	"reldb/pkg/dberrors"
)

// Mutation log line types, one per schema or data mutation.
const (
	logAddColumn    = "AddColumn"
	logDeleteColumn = "DeleteColumn"
	logInsert       = "Insert"
	logUpdate       = "Update"
	logDelete       = "Delete"
)

// appendLog writes one append-only audit line: "<unix_seconds>\t<Type>\t<details>".
// The log is not consulted for recovery in this engine (see spec.md §1).
func (t *Table) appendLog(kind, details string) error {
	line := fmt.Sprintf("%d\t%s\t%s\n", time.Now().Unix(), kind, details)
	if _, err := t.logFile.WriteString(line); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "appendLog", "table")
	}
	return nil
}

// hashRow summarizes a row as a short hex digest for the audit log, so log
// lines stay compact without reproducing full record contents. A stand-in
// for the source's hash-to-string text utility (out of scope per spec.md §1).
func hashRow(row Row) string {
	h := fnv.New32a()
	for _, name := range sortedKeys(row) {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(row[name]))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

func sortedKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	// simple insertion sort: row widths are small (a handful of columns)
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
