package model

import (
	"reflect"
	"testing"
)

func TestParseTerms(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"invoice", []string{"invoice"}},
		{"Work, Urgent", []string{"work", "urgent"}},
		{",alpha,, beta ,", []string{"alpha", "beta"}},
		{"  ,  ,", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := ParseTerms(tc.input)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseTerms(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestQueryValidate(t *testing.T) {
	q := MatchQuery{Terms: []string{"  "}}
	q.Normalize()
	if err := q.Validate(); err != ErrNoTerms {
		t.Errorf("whitespace-only query: got %v, want ErrNoTerms", err)
	}

	q = MatchQuery{}
	if err := q.Validate(); err != ErrNoTerms {
		t.Errorf("empty query: got %v, want ErrNoTerms", err)
	}

	q = MatchQuery{Terms: []string{"Alpha "}}
	q.Normalize()
	if err := q.Validate(); err != nil {
		t.Errorf("valid query: unexpected error %v", err)
	}
	if q.Terms[0] != "alpha" {
		t.Errorf("Normalize: got %q, want %q", q.Terms[0], "alpha")
	}
}

func TestIndiscriminateTags(t *testing.T) {
	cases := []struct {
		terms    []string
		allMatch bool
		want     bool
	}{
		{[]string{"alpha"}, false, false},
		{[]string{"alpha", "beta"}, false, true},
		{[]string{"alpha", "beta"}, true, false},
	}
	for _, tc := range cases {
		q := MatchQuery{Terms: tc.terms, AllMatch: tc.allMatch}
		if got := q.IndiscriminateTags(); got != tc.want {
			t.Errorf("IndiscriminateTags(terms=%v, all=%v) = %v, want %v",
				tc.terms, tc.allMatch, got, tc.want)
		}
	}
}
