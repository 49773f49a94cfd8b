// Package engagement implements the threshold filters that narrow the
// funnel's record sets. Filtering is pure: no side effects, no remote
// calls.
package engagement

import "igfunnel/pkg/record"

// Criteria holds minimum engagement thresholds. A zero minimum leaves
// that metric unconstrained. Criteria are immutable for the duration of
// a funnel run.
type Criteria struct {
	MinLikes     int
	MinComments  int
	MinFollowers int
}

// Passes reports whether a record meets every configured threshold.
// Absent metric fields count as zero, so a record missing "likes" fails
// any positive MinLikes rather than slipping through.
func (c Criteria) Passes(r record.Record) bool {
	if r.Int(record.FieldLikes) < c.MinLikes {
		return false
	}
	if r.Int(record.FieldComments) < c.MinComments {
		return false
	}
	if r.Int(record.FieldFollowers) < c.MinFollowers {
		return false
	}
	return true
}

// Apply returns the records that pass the criteria, preserving order.
// The input slice is never mutated.
func Apply(records []record.Record, c Criteria) []record.Record {
	var passed []record.Record
	for _, r := range records {
		if c.Passes(r) {
			passed = append(passed, r)
		}
	}
	return passed
}
