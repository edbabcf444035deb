package cohort

import (
	"fmt"
	"strconv"
	"strings"
)

// Interval is a numeric range with independently open or closed bounds,
// written as "[18,65)", "(15,45]", etc.
type Interval struct {
	Min, Max float64
	// MinExclusive/MaxExclusive are true for "(" and ")" delimiters.
	MinExclusive bool
	MaxExclusive bool
}

// ParseInterval parses the delimiter-bracketed range syntax used by cohort
// rule lines.
func ParseInterval(s string) (Interval, error) {
	if len(s) < 5 {
		return Interval{}, fmt.Errorf("interval %q: too short", s)
	}

	var iv Interval
	switch s[0] {
	case '[':
	case '(':
		iv.MinExclusive = true
	default:
		return Interval{}, fmt.Errorf("interval %q: %q must be [ or ( only", s, string(s[0]))
	}
	switch s[len(s)-1] {
	case ']':
	case ')':
		iv.MaxExclusive = true
	default:
		return Interval{}, fmt.Errorf("interval %q: %q must be ] or ) only", s, string(s[len(s)-1]))
	}

	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("interval %q: want two comma-separated bounds", s)
	}

	var err error
	if iv.Min, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return Interval{}, fmt.Errorf("interval %q: bad lower bound: %w", s, err)
	}
	if iv.Max, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return Interval{}, fmt.Errorf("interval %q: bad upper bound: %w", s, err)
	}
	return iv, nil
}

// Contains reports whether v falls inside the interval, honouring bound
// exclusivity.
func (iv Interval) Contains(v float64) bool {
	if iv.MinExclusive {
		if v <= iv.Min {
			return false
		}
	} else if v < iv.Min {
		return false
	}
	if iv.MaxExclusive {
		if v >= iv.Max {
			return false
		}
	} else if v > iv.Max {
		return false
	}
	return true
}

// String renders the interval back into rule-line syntax.
func (iv Interval) String() string {
	var b strings.Builder
	if iv.MinExclusive {
		b.WriteByte('(')
	} else {
		b.WriteByte('[')
	}
	b.WriteString(formatBound(iv.Min))
	b.WriteByte(',')
	b.WriteString(formatBound(iv.Max))
	if iv.MaxExclusive {
		b.WriteByte(')')
	} else {
		b.WriteByte(']')
	}
	return b.String()
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
