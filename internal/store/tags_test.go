package store

import (
	"reflect"
	"testing"
)

func TestSplitTags(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"work,urgent", []string{"work", "urgent"}},
		{",blah, here some more blah, blah blah, hello there,,",
			[]string{"blah", "here some more blah", "blah blah", "hello there"}},
		{"", nil},
		{",, ,", nil},
	}
	for _, tc := range cases {
		if got := SplitTags(tc.input); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitTags(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestMergeTags(t *testing.T) {
	got := MergeTags(
		",blah, here some more blah, blah blah, hello there,,",
		",blah, kinda blah but less, blah blah, hello there,,",
	)
	want := "blah,here some more blah,blah blah,hello there,kinda blah but less"
	if got != want {
		t.Errorf("MergeTags = %q, want %q", got, want)
	}
}

func TestMergeTagsSetUnion(t *testing.T) {
	first := MergeTags("", "work,urgent")
	second := MergeTags(first, "work,home")

	got := SplitTags(second)
	want := []string{"work", "urgent", "home"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("merged tags = %v, want %v", got, want)
	}
}

func TestTagsOverlap(t *testing.T) {
	cases := []struct {
		stored, wanted string
		want           bool
	}{
		{"work,urgent", "work", true},
		{"work,urgent", "home,urgent", true},
		{"work", "home", false},
		{"", "work", false},
		{"work", "", false},
	}
	for _, tc := range cases {
		if got := tagsOverlap(tc.stored, tc.wanted); got != tc.want {
			t.Errorf("tagsOverlap(%q, %q) = %v, want %v",
				tc.stored, tc.wanted, got, tc.want)
		}
	}
}
