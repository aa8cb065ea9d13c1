// Package script lets a caller describe an RA pipeline as an ordered list
// of steps instead of a Go call chain, for the inspector's pipeline editor
// and for ad-hoc CLI use. It is additive sugar over pkg/ra.View: a literal,
// non-parsed step list, not a query language.
package script

import (
	"fmt"

	"reldb/pkg/cell"
	"reldb/pkg/database"
	"reldb/pkg/dberrors"
	"reldb/pkg/ra"
)

// Kind names the ra.View operation a Step performs.
type Kind string

const (
	KindPrepare  Kind = "prepare"
	KindSelect   Kind = "select"
	KindProject  Kind = "project"
	KindCross    Kind = "cross"
	KindJoin     Kind = "join"
	KindRedefine Kind = "redefine"
)

// Step is one pipeline operation. The fields used depend on Kind:
//
//	prepare:  Table
//	select:   Alias, Predicate, Param
//	project:  Aliases
//	cross:    Table
//	join:     Alias, Table, Column
//	redefine: Alias, NewAlias
type Step struct {
	Kind      Kind
	Table     string
	Alias     string
	NewAlias  string
	Column    string
	Aliases   []string
	Predicate cell.Predicate
	Param     any
}

// Run executes steps in order against a fresh view over db, returning the
// resulting view. A step referencing an unknown predicate or malformed
// field fails with CodeRAError.
func Run(db *database.Database, steps []Step) (*ra.View, error) {
	v := ra.New(db)
	for i, s := range steps {
		if err := applyStep(v, s); err != nil {
			return nil, dberrors.Wrap(err, dberrors.CodeRAError, fmt.Sprintf("step %d (%s)", i, s.Kind), "ra/script")
		}
	}
	return v, nil
}

func applyStep(v *ra.View, s Step) error {
	switch s.Kind {
	case KindPrepare:
		return v.PrepareTable(s.Table)
	case KindSelect:
		if s.Predicate == nil {
			return dberrors.New(dberrors.CodeRAError, "select step missing predicate")
		}
		return v.Select(s.Alias, s.Predicate, s.Param)
	case KindProject:
		return v.Project(s.Aliases)
	case KindCross:
		return v.Cross(s.Table)
	case KindJoin:
		return v.NLJoin(s.Alias, s.Table, s.Column)
	case KindRedefine:
		return v.Redefine(s.Alias, s.NewAlias)
	default:
		return dberrors.New(dberrors.CodeRAError, "unknown pipeline step kind").WithDetail(string(s.Kind))
	}
}
