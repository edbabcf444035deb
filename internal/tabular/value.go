// Package tabular reads tab-separated files with a header row into ordered,
// typed records. It is the single ingestion path for entity and cohort data:
// every value is cast once at load time so downstream matching never has to
// interpret raw text.
package tabular

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type a cell is cast to.
type Kind int

const (
	// KindAuto infers the type from the cell text: bracketed lists, then
	// integers, then floats, then plain strings.
	KindAuto Kind = iota
	KindString
	KindInt
	KindFloat
	// KindList is a bracketed, comma-separated list of strings, e.g.
	// "[a@x.com,b@y.com]". "[]" is the empty list.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single typed cell. Exactly one of the payload fields is
// meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Float float64
	List  []string
}

// StringValue builds a string-typed Value.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue builds an integer-typed Value.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// FloatValue builds a float-typed Value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// ListValue builds a list-typed Value.
func ListValue(items []string) Value { return Value{Kind: KindList, List: items} }

// CastValue casts raw cell text to the requested kind. KindAuto applies
// inference; declared kinds are strict and return ErrBadCast on failure.
func CastValue(raw string, kind Kind) (Value, error) {
	switch kind {
	case KindString:
		return StringValue(raw), nil
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrBadCast, raw)
		}
		return IntValue(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrBadCast, raw)
		}
		return FloatValue(f), nil
	case KindList:
		items, ok := parseList(raw)
		if !ok {
			return Value{}, fmt.Errorf("%w: %q is not a bracketed list", ErrBadCast, raw)
		}
		return ListValue(items), nil
	case KindAuto:
		if items, ok := parseList(raw); ok {
			return ListValue(items), nil
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntValue(n), nil
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return FloatValue(f), nil
		}
		return StringValue(raw), nil
	default:
		return Value{}, fmt.Errorf("unknown kind %v", kind)
	}
}

// parseList recognises "[a,b,c]" cells. "[]" yields an empty (non-nil) list
// so callers can distinguish "no emails" from "column absent".
func parseList(raw string) ([]string, bool) {
	if len(raw) < 2 || !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, false
	}
	inner := raw[1 : len(raw)-1]
	if inner == "" {
		return []string{}, true
	}
	return strings.Split(inner, ","), true
}
