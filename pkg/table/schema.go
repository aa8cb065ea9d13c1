package table

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"reldb/pkg/dberrors"
)

// defLine formats one "name:length" schema line.
func defLine(name string, length int) string {
	return fmt.Sprintf("%s:%d\n", name, length)
}

// parseDef reads a .def file into an ordered column list. Each line is
// "name:length"; order in the file is schema order.
func parseDef(path string) ([]string, map[string]Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, dberrors.Wrap(err, dberrors.CodeIoError, "parseDef", "table")
	}
	defer f.Close()

	order := make([]string, 0)
	columns := make(map[string]Column)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return nil, nil, dberrors.New(dberrors.CodeSchemaViolation, "malformed .def line").
				WithDetail(line)
		}
		name := parts[0]
		length, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, nil, dberrors.New(dberrors.CodeSchemaViolation, "malformed column length").
				WithDetail(line)
		}
		order = append(order, name)
		columns[name] = Column{Name: name, Length: length}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, dberrors.Wrap(err, dberrors.CodeIoError, "parseDef", "table")
	}

	computeOffsets(order, columns)
	return order, columns, nil
}

// rewriteDef overwrites the .def file with the current order/columns.
func rewriteDef(path string, order []string, columns map[string]Column) error {
	var b strings.Builder
	for _, name := range order {
		b.WriteString(defLine(name, columns[name].Length))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "rewriteDef", "table")
	}
	return nil
}

// appendDefLine appends a single column definition, used when adding a
// column to an empty table (no rebuild needed).
func appendDefLine(path, name string, length int) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "appendDefLine", "table")
	}
	defer f.Close()

	if _, err := f.WriteString(defLine(name, length)); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "appendDefLine", "table")
	}
	return nil
}

// removeDefLine rewrites the .def file dropping the named column's line.
func removeDefLine(path string, order []string, columns map[string]Column, drop string) error {
	newOrder := make([]string, 0, len(order))
	for _, name := range order {
		if name != drop {
			newOrder = append(newOrder, name)
		}
	}
	return rewriteDef(path, newOrder, columns)
}
