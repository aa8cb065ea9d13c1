// Package table implements the on-disk, fixed-width record storage layer:
// one table is a trio of files (.def schema, .data records, .log audit
// trail) plus the directories a Transaction uses for advisory locks.
package table

import (
	"os"
	"path/filepath"
	"sync"

	"reldb/pkg/dberrors"
	"reldb/pkg/dblog"
)

// Owner is the non-owning handle a Table holds back to its Database. It
// exposes only what the storage layer needs (its directory, for locating
// sibling files during a schema rebuild) without giving Table any
// dependency on the database package, which would create an import cycle
// since Database owns a map of Tables.
type Owner interface {
	Dir() string
}

// Row is a column-name-keyed view of one record. Table.ReadRow returns raw,
// untrimmed fixed-width values; callers trim as needed (see pkg/cell).
type Row map[string]string

// Table is one fixed-width on-disk relation.
type Table struct {
	Name      string
	Columns   map[string]Column
	Order     []string
	RowLength int // sum of column lengths + 1 (newline terminator)

	dir      string
	defPath  string
	dataPath string
	logPath  string

	owner Owner

	mu       sync.RWMutex
	dataFile *os.File
	logFile  *os.File
}

func paths(dir, name string) (def, data, log string) {
	base := filepath.Join(dir, name)
	return base + ".def", base + ".data", base + ".log"
}

// Create initializes a brand-new, empty table: creates the three files and
// its companion .shared lock directory, then registers the reserved ~del
// column. Fails if any of the files already exist or the name is too long.
func Create(owner Owner, name string) (*Table, error) {
	if len(name) > MaxNameLength {
		return nil, dberrors.New(dberrors.CodeSchemaViolation, "table name exceeds maximum length").
			WithDetail(name)
	}

	dir := owner.Dir()
	defPath, dataPath, logPath := paths(dir, name)

	for _, p := range []string{defPath, dataPath, logPath} {
		if _, err := os.Stat(p); err == nil {
			return nil, dberrors.New(dberrors.CodeSchemaViolation, "table already exists").
				WithDetail(name)
		}
	}

	for _, p := range []string{defPath, dataPath, logPath} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			return nil, dberrors.Wrap(err, dberrors.CodeIoError, "Create", "table")
		}
	}

	sharedDir := filepath.Join(dir, name+".shared")
	if err := os.MkdirAll(sharedDir, 0o755); err != nil {
		return nil, dberrors.Wrap(err, dberrors.CodeIoError, "Create", "table")
	}

	t, err := open(owner, name)
	if err != nil {
		return nil, err
	}

	if err := t.AddColumn(DeletedColumnName, 1); err != nil {
		return nil, err
	}

	dblog.WithTable(name).Debug("table created")
	return t, nil
}

// Open attaches to an existing table's files on disk.
func Open(owner Owner, name string) (*Table, error) {
	return open(owner, name)
}

func open(owner Owner, name string) (*Table, error) {
	dir := owner.Dir()
	defPath, dataPath, logPath := paths(dir, name)

	order, columns, err := parseDef(defPath)
	if err != nil {
		return nil, err
	}

	dataFile, err := os.OpenFile(dataPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, dberrors.Wrap(err, dberrors.CodeIoError, "open", "table")
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		dataFile.Close()
		return nil, dberrors.Wrap(err, dberrors.CodeIoError, "open", "table")
	}

	return &Table{
		Name:      name,
		Columns:   columns,
		Order:     order,
		RowLength: rowLength(order, columns),
		dir:       dir,
		defPath:   defPath,
		dataPath:  dataPath,
		logPath:   logPath,
		owner:     owner,
		dataFile:  dataFile,
		logFile:   logFile,
	}, nil
}

func rowLength(order []string, columns map[string]Column) int {
	total := 1 // newline terminator
	for _, name := range order {
		total += columns[name].Length
	}
	return total
}

// Close releases the table's open file handles.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	if t.dataFile != nil {
		if err := t.dataFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.dataFile = nil
	}
	if t.logFile != nil {
		if err := t.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		t.logFile = nil
	}
	return firstErr
}

// reopen closes and reacquires the data/log file handles, used after a
// rename or rebuild swap changes the table's backing paths.
func (t *Table) reopen() error {
	if t.dataFile != nil {
		t.dataFile.Close()
	}
	if t.logFile != nil {
		t.logFile.Close()
	}

	dataFile, err := os.OpenFile(t.dataPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "reopen", "table")
	}
	logFile, err := os.OpenFile(t.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		dataFile.Close()
		return dberrors.Wrap(err, dberrors.CodeIoError, "reopen", "table")
	}

	t.dataFile = dataFile
	t.logFile = logFile
	return nil
}

// Paths returns the table's three core file paths (.def, .data, .log).
func (t *Table) Paths() (def, data, log string) {
	return t.defPath, t.dataPath, t.logPath
}

// Rename moves every filesystem entry backing this table (the three core
// files, the .shared lock directory, and any stray .exclusive lock file)
// to the new name, then updates the table's stored paths and reopens its
// file handles.
func (t *Table) Rename(newName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dataFile != nil {
		t.dataFile.Close()
	}
	if t.logFile != nil {
		t.logFile.Close()
	}

	newDef, newData, newLog := paths(t.dir, newName)
	renames := [][2]string{
		{t.defPath, newDef},
		{t.dataPath, newData},
		{t.logPath, newLog},
		{t.SharedDir(), filepath.Join(t.dir, newName+".shared")},
	}
	for _, r := range renames {
		if _, err := os.Stat(r[0]); err != nil {
			continue
		}
		if err := os.Rename(r[0], r[1]); err != nil {
			return dberrors.Wrap(err, dberrors.CodeIoError, "Rename", "table")
		}
	}

	oldExclusive := t.ExclusivePath()
	if _, err := os.Stat(oldExclusive); err == nil {
		os.Rename(oldExclusive, filepath.Join(t.dir, newName+".exclusive"))
	}

	t.Name = newName
	t.defPath, t.dataPath, t.logPath = newDef, newData, newLog

	dataFile, err := os.OpenFile(t.dataPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "Rename", "table")
	}
	logFile, err := os.OpenFile(t.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		dataFile.Close()
		return dberrors.Wrap(err, dberrors.CodeIoError, "Rename", "table")
	}
	t.dataFile = dataFile
	t.logFile = logFile
	return nil
}

// SharedDir is the directory a Transaction creates shared-lock marker
// files in: <dir>/<name>.shared/<tx-id>.
func (t *Table) SharedDir() string {
	return filepath.Join(t.dir, t.Name+".shared")
}

// ExclusivePath is the single-line file a Transaction writes its id into
// to hold the exclusive lock: <dir>/<name>.exclusive.
func (t *Table) ExclusivePath() string {
	return filepath.Join(t.dir, t.Name+".exclusive")
}
