// Package database is a directory-scoped registry of Tables. It owns the
// two reserved trigger meta-tables (~before, ~after) that the trigger
// dispatch and constraint layers read and write.
package database

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"reldb/pkg/dberrors"
	"reldb/pkg/dblog"
	"reldb/pkg/table"
)

// BeforeTable and AfterTable are the reserved trigger meta-table names.
const (
	BeforeTable = "~before"
	AfterTable  = "~after"
)

// initFlag marks that a directory's meta-tables have already been created.
const initFlag = ".init"

var tableFileRE = regexp.MustCompile(`^([^.][^.]*)\.(data|log|def)$`)

// MetaColumns describes the five user columns of ~before/~after, in order.
// Plus the inherited ~del, every trigger row records which (table, column,
// operation) it fires on, which registered function handles it, and a
// semicolon-separated parameter string.
var MetaColumns = []struct {
	Name   string
	Length int
}{
	{"table", table.MaxNameLength},
	{"column", table.MaxNameLength},
	{"operation", 6},
	{"function", table.MaxNameLength},
	{"parameters", 50},
}

// Database is a directory-scoped set of Tables.
type Database struct {
	path string

	mu     sync.RWMutex
	tables map[string]*table.Table
}

// Dir implements table.Owner.
func (d *Database) Dir() string {
	return d.path
}

// Open attaches to path, scanning it for existing tables and ensuring the
// reserved meta-tables exist. Re-opening a directory is idempotent.
func Open(path string) (*Database, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, dberrors.New(dberrors.CodeDirectoryInvalid, "path is not a directory").
			WithDetail(path)
	}

	db := &Database{path: path, tables: make(map[string]*table.Table)}

	if err := db.scanExisting(); err != nil {
		return nil, err
	}
	if err := db.initDir(); err != nil {
		return nil, err
	}

	dblog.WithComponent("database").Debug("database opened", "path", path)
	return db, nil
}

func (d *Database) scanExisting() error {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "scanExisting", "database")
	}

	names := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := tableFileRE.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		names[m[1]] = true
	}

	for name := range names {
		t, err := table.Open(d, name)
		if err != nil {
			return err
		}
		d.tables[name] = t
	}
	return nil
}

// initDir creates the two reserved trigger meta-tables if .init is absent.
func (d *Database) initDir() error {
	flagPath := filepath.Join(d.path, initFlag)
	if _, err := os.Stat(flagPath); err == nil {
		return nil
	}

	for _, name := range []string{BeforeTable, AfterTable} {
		if _, exists := d.tables[name]; exists {
			continue
		}
		t, err := table.Create(d, name)
		if err != nil {
			return err
		}
		for _, c := range MetaColumns {
			if err := t.AddColumn(c.Name, c.Length); err != nil {
				return err
			}
		}
		d.tables[name] = t
	}

	if err := os.WriteFile(flagPath, nil, 0o644); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "initDir", "database")
	}
	return nil
}

// NewTable creates and registers a fresh, empty table.
func (d *Database) NewTable(name string) (*table.Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tables[name]; exists {
		return nil, dberrors.New(dberrors.CodeSchemaViolation, "table already exists").WithDetail(name)
	}

	t, err := table.Create(d, name)
	if err != nil {
		return nil, err
	}
	d.tables[name] = t
	dblog.WithTable(name).Debug("table registered")
	return t, nil
}

// DeleteTable unlinks a table's files and its lock directory, then drops
// it from the registry.
func (d *Database) DeleteTable(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tables[name]
	if !ok {
		return dberrors.New(dberrors.CodeSchemaViolation, "unknown table").WithDetail(name)
	}

	if err := t.Close(); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "DeleteTable", "database")
	}

	defPath, dataPath, logPath := t.Paths()
	for _, p := range []string{defPath, dataPath, logPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return dberrors.Wrap(err, dberrors.CodeIoError, "DeleteTable", "database")
		}
	}
	if err := os.RemoveAll(t.SharedDir()); err != nil {
		return dberrors.Wrap(err, dberrors.CodeIoError, "DeleteTable", "database")
	}
	os.Remove(t.ExclusivePath())

	delete(d.tables, name)
	dblog.WithTable(name).Debug("table deleted")
	return nil
}

// RenameTable renames all filesystem entries backing a table.
func (d *Database) RenameTable(oldName, newName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tables[oldName]
	if !ok {
		return dberrors.New(dberrors.CodeSchemaViolation, "unknown table").WithDetail(oldName)
	}
	if _, exists := d.tables[newName]; exists {
		return dberrors.New(dberrors.CodeSchemaViolation, "table already exists").WithDetail(newName)
	}

	if err := t.Rename(newName); err != nil {
		return err
	}

	delete(d.tables, oldName)
	d.tables[newName] = t
	dblog.WithComponent("database").Debug("table renamed", "from", oldName, "to", newName)
	return nil
}

// Table looks up a registered table by name.
func (d *Database) Table(name string) (*table.Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tables[name]
	if !ok {
		return nil, dberrors.New(dberrors.CodeSchemaViolation, "unknown table").WithDetail(name)
	}
	return t, nil
}

// TableNames returns every registered table's name.
func (d *Database) TableNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	return names
}

// Close closes every table's file handles.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var firstErr error
	for _, t := range d.tables {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
