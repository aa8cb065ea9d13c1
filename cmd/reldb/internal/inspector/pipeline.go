package inspector

import (
	"fmt"
	"strings"

	"reldb/pkg/cell"
	"reldb/pkg/ra/script"
)

// parsePipeline turns the editor's line-oriented pipeline description into
// an ordered []script.Step. Each line is one ra.View operation; this is
// deliberately not a query language (no grammar beyond "verb arguments"),
// just a literal, typed front end onto pkg/ra/script.Step for the
// inspector's editor pane.
//
// prepare <table>
// select <alias> eq|lt <value>
// select <alias> anyof <v1,v2,...>
// project <alias1,alias2,...>
// cross <table>
// join <alias> <table> <column>
// redefine <old> <new>
func parsePipeline(text string) ([]script.Step, error) {
	var steps []script.Step
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		verb := strings.ToLower(fields[0])
		args := fields[1:]

		step, err := parseLine(verb, args)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("pipeline is empty")
	}
	return steps, nil
}

func parseLine(verb string, args []string) (script.Step, error) {
	switch verb {
	case "prepare":
		if len(args) != 1 {
			return script.Step{}, fmt.Errorf("prepare takes exactly one table name")
		}
		return script.Step{Kind: script.KindPrepare, Table: args[0]}, nil

	case "select":
		if len(args) != 3 {
			return script.Step{}, fmt.Errorf("select takes <alias> <eq|lt|anyof> <value>")
		}
		var predicate cell.Predicate
		var param any
		switch strings.ToLower(args[1]) {
		case "eq":
			predicate = cell.Equals
			param = args[2]
		case "lt":
			predicate = cell.LessThan
			param = args[2]
		case "anyof":
			predicate = cell.AnyOf
			param = strings.Split(args[2], ",")
		default:
			return script.Step{}, fmt.Errorf("unknown predicate %q (want eq, lt, or anyof)", args[1])
		}
		return script.Step{Kind: script.KindSelect, Alias: args[0], Predicate: predicate, Param: param}, nil

	case "project":
		if len(args) != 1 {
			return script.Step{}, fmt.Errorf("project takes a comma-separated alias list")
		}
		return script.Step{Kind: script.KindProject, Aliases: strings.Split(args[0], ",")}, nil

	case "cross":
		if len(args) != 1 {
			return script.Step{}, fmt.Errorf("cross takes exactly one table name")
		}
		return script.Step{Kind: script.KindCross, Table: args[0]}, nil

	case "join":
		if len(args) != 3 {
			return script.Step{}, fmt.Errorf("join takes <alias> <table> <column>")
		}
		return script.Step{Kind: script.KindJoin, Alias: args[0], Table: args[1], Column: args[2]}, nil

	case "redefine":
		if len(args) != 2 {
			return script.Step{}, fmt.Errorf("redefine takes <old-alias> <new-alias>")
		}
		return script.Step{Kind: script.KindRedefine, Alias: args[0], NewAlias: args[1]}, nil

	default:
		return script.Step{}, fmt.Errorf("unknown verb %q", verb)
	}
}
