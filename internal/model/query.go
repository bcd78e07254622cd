package model

import (
	"errors"
	"strings"
)

// ErrNoTerms is returned when a query has no usable search terms.
var ErrNoTerms = errors.New("query has no search terms")

// MatchQuery is one user search request against the local corpus.
type MatchQuery struct {
	// Terms are the lowercase search terms, in the order the user gave them.
	Terms []string

	// SearchSubject, SearchTo and SearchFrom select which header lines are
	// checked with the substring policy before the body is walked.
	SearchSubject bool
	SearchTo      bool
	SearchFrom    bool

	// AllMatch requires every term to be satisfied; otherwise any single
	// term satisfies the query.
	AllMatch bool
}

// ParseTerms splits comma-separated user input into lowercase terms,
// dropping empty and whitespace-only fragments.
func ParseTerms(input string) []string {
	var terms []string
	for _, raw := range strings.Split(input, ",") {
		term := strings.ToLower(strings.TrimSpace(raw))
		if term == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// Normalize lowercases and trims every term and drops empties, preserving
// order. It is applied before Validate so whitespace-only input is rejected.
func (q *MatchQuery) Normalize() {
	kept := q.Terms[:0]
	for _, t := range q.Terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		kept = append(kept, t)
	}
	q.Terms = kept
}

// Validate reports whether the query can be dispatched.
func (q *MatchQuery) Validate() error {
	if len(q.Terms) == 0 {
		return ErrNoTerms
	}
	for _, t := range q.Terms {
		if strings.TrimSpace(t) != "" {
			return nil
		}
	}
	return ErrNoTerms
}

// TagString returns the comma-joined tag applied to every match of this query.
func (q MatchQuery) TagString() string {
	return strings.Join(q.Terms, ",")
}

// IndiscriminateTags reports whether committing this query would tag every
// matched message with every term: in any-mode with multiple terms a message
// matching only one term still receives the full tag string. Callers should
// confirm with the user before dispatching such a query.
func (q MatchQuery) IndiscriminateTags() bool {
	return !q.AllMatch && len(q.Terms) > 1
}
