package cohort

import (
	"fmt"
	"strings"
)

// Field names accepted in rule lines, beyond the "cohort" ID key.
var equalityFields = map[string]bool{
	"first_name": true,
	"last_name":  true,
	"country":    true,
	"zip_code":   true,
}

const (
	idKey       = "cohort"
	ageKey      = "age"
	emailsKey   = "emails"
	keySep = ":"
)

// ParseRuleLine parses one tab-separated cohort definition of the form
//
//	cohort:5	last_name:Jackson	age:(18,26)	emails:gmail.com
//
// into a Cohort. The "cohort" key is required; unknown keys are rejected so
// a typo cannot silently produce a weaker rule.
func ParseRuleLine(line string) (*Cohort, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, fmt.Errorf("empty rule line")
	}

	c := &Cohort{}
	seen := map[string]bool{}
	for _, part := range strings.Split(line, "\t") {
		key, value, ok := strings.Cut(part, keySep)
		if !ok || key == "" {
			return nil, fmt.Errorf("rule %q: want key:value", part)
		}
		if seen[key] {
			return nil, fmt.Errorf("rule line repeats key %q", key)
		}
		seen[key] = true

		switch {
		case key == idKey:
			c.ID = value
		case key == ageKey:
			iv, err := ParseInterval(value)
			if err != nil {
				return nil, err
			}
			c.Rules = append(c.Rules, Rule{Field: ageKey, Match: MatchInterval, Interval: iv})
		case key == emailsKey:
			c.Rules = append(c.Rules, Rule{Field: emailsKey, Match: MatchEmailDomain, Value: value})
		case equalityFields[key]:
			c.Rules = append(c.Rules, Rule{Field: key, Match: MatchEquals, Value: value})
		default:
			return nil, fmt.Errorf("unknown rule field %q", key)
		}
	}

	if c.ID == "" {
		return nil, fmt.Errorf("rule line %q: missing cohort id", line)
	}
	return c, nil
}

// RuleLine renders the cohort back into its canonical tab-separated form.
// ParseRuleLine(c.RuleLine()) reproduces the cohort.
func (c *Cohort) RuleLine() string {
	parts := make([]string, 0, len(c.Rules)+1)
	parts = append(parts, idKey+keySep+c.ID)
	for _, r := range c.Rules {
		switch r.Match {
		case MatchInterval:
			parts = append(parts, r.Field+keySep+r.Interval.String())
		default:
			parts = append(parts, r.Field+keySep+r.Value)
		}
	}
	return strings.Join(parts, "\t")
}
