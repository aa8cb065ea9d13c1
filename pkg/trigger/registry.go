// Package trigger implements the before/after trigger dispatch pipeline:
// for each mutated column, it selects the applicable rows from a trigger
// meta-table view and invokes the registered function those rows name.
package trigger

import (
	"sync"

	"reldb/pkg/database"
	"reldb/pkg/table"
)

// Params is passed to every registered trigger function.
type Params struct {
	Table  string     // table the mutation is on
	Column string     // column that fired this trigger
	Op     string     // "insert" | "update" | "delete"
	Row1   table.Row  // insert: new row; update: old row; delete: old row
	Row2   table.Row  // update: new row; otherwise nil
	Extra  []string   // the trigger row's ";"-separated parameters field
	DB     *database.Database
}

// Func is a registered trigger function. A non-nil error fails the
// operation that triggered it.
type Func func(Params) error

// registry is process-wide: trigger rows persist a string key, and
// dispatch looks the key up here at fire time, decoupling persisted rows
// from any particular source identifier.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Func)
)

func init() {
	Register("pk", pk)
	Register("fk", fk)
	Register("fk_strict", fkStrict)
	Register("update_restricted", updateRestricted)
	Register("delete_restricted", deleteRestricted)
}

// Register adds or replaces a named trigger function.
func Register(key string, fn Func) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key] = fn
}

// Lookup retrieves a registered trigger function by key.
func Lookup(key string) (Func, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[key]
	return fn, ok
}
