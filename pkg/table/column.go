package table

import (
	"reldb/pkg/dberrors"
)

// MaxNameLength bounds table and column names to 50 bytes. It is also the
// width of the table, column and function fields of the trigger meta-tables.
const MaxNameLength = 50

// DeletedColumnName is the reserved, always-present tombstone column.
// A value of "y" marks a row as logically deleted; a space marks it live.
const DeletedColumnName = "~del"

// DeletedLive and DeletedTombstone are the two values ~del ever holds.
const (
	DeletedLive      = " "
	DeletedTombstone = "y"
)

// Column describes one fixed-width field within a row.
type Column struct {
	Name   string
	Length int
	Offset int
}

func validateColumnName(name string) error {
	if len(name) == 0 {
		return dberrors.New(dberrors.CodeSchemaViolation, "column name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return dberrors.New(dberrors.CodeSchemaViolation, "column name exceeds maximum length").
			WithDetail(name)
	}
	return nil
}

// computeOffsets assigns Offset to every column in order, cumulative over
// Length, and returns the total row width excluding the newline terminator.
func computeOffsets(order []string, columns map[string]Column) int {
	offset := 0
	for _, name := range order {
		col := columns[name]
		col.Offset = offset
		columns[name] = col
		offset += col.Length
	}
	return offset
}
