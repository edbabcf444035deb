// Package cohort implements cohort membership rules and the in-memory
// cohort store used by the matcher.
package cohort

import "strings"

// Match kind constants for rule conditions.
const (
	MatchEquals      = "eq"
	MatchInterval    = "interval"
	MatchEmailDomain = "email_domain"
)

// Rule is a single field condition inside a cohort definition. An entity
// belongs to a cohort when every rule is satisfied.
type Rule struct {
	Field    string   // entity field this rule applies to
	Match    string   // comparison kind (use Match* constants)
	Value    string   // equality target, or email domain
	Interval Interval // populated when Match == MatchInterval
}

// Subject is the minimal view of an entity a rule evaluates against.
type Subject interface {
	StringField(name string) (string, bool)
	NumberField(name string) (float64, bool)
	EmailList() []string
}

// Satisfied reports whether the subject meets this rule. A field the
// subject does not expose never satisfies a rule.
func (r Rule) Satisfied(s Subject) bool {
	switch r.Match {
	case MatchEquals:
		v, ok := s.StringField(r.Field)
		return ok && v == r.Value
	case MatchInterval:
		v, ok := s.NumberField(r.Field)
		return ok && r.Interval.Contains(v)
	case MatchEmailDomain:
		want := strings.ToLower(r.Value)
		for _, addr := range s.EmailList() {
			if emailDomain(addr) == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// emailDomain extracts the lowercased domain part of an address, or "" when
// the address has no "@".
func emailDomain(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}

// Cohort is a named grouping criterion: an ID plus an ordered rule list.
type Cohort struct {
	ID    string
	Rules []Rule
}

// Matches reports whether the subject satisfies every rule of the cohort.
// A cohort with no rules matches everything, as in the source data format
// where absent keys impose no constraint.
func (c *Cohort) Matches(s Subject) bool {
	for _, r := range c.Rules {
		if !r.Satisfied(s) {
			return false
		}
	}
	return true
}
