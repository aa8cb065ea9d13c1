// Package cell holds the pure comparators that RA selections filter rows
// with. Every comparator takes the raw, fixed-width cell value and a
// caller-supplied parameter, and operates on the trimmed text.
package cell

import (
	"strconv"
	"strings"
)

// Predicate is a two-argument comparator over a trimmed cell value and a
// caller parameter. Predicates are first-class values: they are registered
// by reference into RA's Select.
type Predicate func(cellValue string, param any) bool

// Trim strips the leading/trailing whitespace a fixed-width cell is padded
// with. All predicates and equality checks operate on trimmed values.
func Trim(raw string) string {
	return strings.TrimSpace(raw)
}

// Equals reports whether the trimmed cell equals the trimmed string param.
func Equals(cellValue string, param any) bool {
	p, ok := param.(string)
	if !ok {
		return false
	}
	return Trim(cellValue) == Trim(p)
}

// LessThan reports whether the trimmed cell, parsed as a number, is less
// than param (also coerced to a number). Non-numeric operands compare false.
func LessThan(cellValue string, param any) bool {
	a, aok := parseNumber(Trim(cellValue))
	if !aok {
		return false
	}

	switch p := param.(type) {
	case string:
		b, bok := parseNumber(Trim(p))
		if !bok {
			return false
		}
		return a < b
	case float64:
		return a < p
	case int:
		return a < float64(p)
	default:
		return false
	}
}

// AnyOf reports whether the trimmed cell equals the trimmed form of any
// element in param, which must be a []string.
func AnyOf(cellValue string, param any) bool {
	list, ok := param.([]string)
	if !ok {
		return false
	}
	trimmed := Trim(cellValue)
	for _, candidate := range list {
		if trimmed == Trim(candidate) {
			return true
		}
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
