package models

import "testing"

func TestPageResultFailed(t *testing.T) {
	if (&PageResult{URL: "https://example.com/"}).Failed() {
		t.Error("page without an error reported as failed")
	}
	if !(&PageResult{URL: "https://example.com/", Error: "timeout"}).Failed() {
		t.Error("page with an error not reported as failed")
	}
}

func TestFullyEnriched(t *testing.T) {
	tests := []struct {
		name string
		page PageResult
		want bool
	}{
		{"no suggestions", PageResult{}, false},
		{"title only", PageResult{SuggestedTitle: "t"}, false},
		{"missing keywords", PageResult{SuggestedTitle: "t", SuggestedDescription: "d"}, false},
		{"all three", PageResult{SuggestedTitle: "t", SuggestedDescription: "d", SuggestedKeywords: "k"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.page.FullyEnriched(); got != tt.want {
				t.Errorf("FullyEnriched() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeSuggestions(t *testing.T) {
	r := &PageResult{SuggestedTitle: "keep me"}
	r.MergeSuggestions(&PageResult{
		SuggestedTitle:       "discard",
		SuggestedDescription: "merged description",
		SuggestedKeywords:    "merged keywords",
	})

	if r.SuggestedTitle != "keep me" {
		t.Errorf("existing title overwritten: %q", r.SuggestedTitle)
	}
	if r.SuggestedDescription != "merged description" || r.SuggestedKeywords != "merged keywords" {
		t.Errorf("empty fields not merged: %+v", r)
	}
}

func TestMergeSuggestionsNil(t *testing.T) {
	r := &PageResult{SuggestedTitle: "t"}
	r.MergeSuggestions(nil)
	if r.SuggestedTitle != "t" {
		t.Error("merge with nil mutated the receiver")
	}
}

func TestSitemapEntryHint(t *testing.T) {
	if hint := (SitemapEntry{URL: "https://example.com/"}).Hint(); hint != nil {
		t.Errorf("entry without metadata produced hint %+v", hint)
	}

	entry := SitemapEntry{
		URL:          "https://example.com/",
		LastModified: "2026-01-15",
		Priority:     "0.8",
		ChangeFreq:   "weekly",
	}
	hint := entry.Hint()
	if hint == nil {
		t.Fatal("entry with metadata produced no hint")
	}
	if hint.LastModified != "2026-01-15" || hint.Priority != "0.8" || hint.ChangeFreq != "weekly" {
		t.Errorf("hint = %+v", hint)
	}

	if (SitemapEntry{URL: "https://example.com/", Priority: "0.5"}).Hint() == nil {
		t.Error("a single metadata field is enough for a hint")
	}
}
