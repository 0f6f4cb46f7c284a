package extract

import (
	"strings"
	"testing"

	"seo-audit/pkg/models"
)

func TestGradePage_Title(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  int
	}{
		{"missing", "", 0},
		{"ideal length", strings.Repeat("a", 45), 100},
		{"at minimum", strings.Repeat("a", 30), 100},
		{"at maximum", strings.Repeat("a", 60), 100},
		{"slightly long", strings.Repeat("a", 70), 70},
		{"far too long", strings.Repeat("a", 120), 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := GradePage(&models.PageResult{Title: tt.title})
			if scores.Title != tt.want {
				t.Errorf("Title score = %d, want %d", scores.Title, tt.want)
			}
		})
	}
}

func TestGradePage_ShortTitleScales(t *testing.T) {
	short := GradePage(&models.PageResult{Title: strings.Repeat("a", 10)}).Title
	longer := GradePage(&models.PageResult{Title: strings.Repeat("a", 25)}).Title
	if short >= longer {
		t.Errorf("short title score %d should be below longer title score %d", short, longer)
	}
	if short < 50 || longer > 100 {
		t.Errorf("short-title scores out of expected band: %d, %d", short, longer)
	}
}

func TestGradePage_Description(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want int
	}{
		{"missing", "", 0},
		{"too short", strings.Repeat("a", 50), 60},
		{"ideal", strings.Repeat("a", 140), 100},
		{"slightly long", strings.Repeat("a", 180), 70},
		{"far too long", strings.Repeat("a", 300), 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := GradePage(&models.PageResult{MetaDescription: tt.desc})
			if scores.Description != tt.want {
				t.Errorf("Description score = %d, want %d", scores.Description, tt.want)
			}
		})
	}
}

func TestGradePage_Headings(t *testing.T) {
	if got := GradePage(&models.PageResult{}).Headings; got != 0 {
		t.Errorf("no H1 score = %d, want 0", got)
	}
	if got := GradePage(&models.PageResult{H1: []string{"one"}}).Headings; got != 100 {
		t.Errorf("single H1 score = %d, want 100", got)
	}
	if got := GradePage(&models.PageResult{H1: []string{"one", "two"}}).Headings; got != 50 {
		t.Errorf("multiple H1 score = %d, want 50", got)
	}
}

func TestGradePage_Images(t *testing.T) {
	if got := GradePage(&models.PageResult{}).Images; got != 100 {
		t.Errorf("no images score = %d, want 100", got)
	}
	if got := GradePage(&models.PageResult{ImageCount: 4, ImagesMissingAlt: 1}).Images; got != 75 {
		t.Errorf("3/4 alt coverage score = %d, want 75", got)
	}
	if got := GradePage(&models.PageResult{ImageCount: 2, ImagesMissingAlt: 2}).Images; got != 0 {
		t.Errorf("no alt coverage score = %d, want 0", got)
	}
}

func TestGradePage_Content(t *testing.T) {
	if got := GradePage(&models.PageResult{}).Content; got != 0 {
		t.Errorf("empty content score = %d, want 0", got)
	}
	if got := GradePage(&models.PageResult{WordCount: 500}).Content; got != 100 {
		t.Errorf("long content score = %d, want 100", got)
	}
	if got := GradePage(&models.PageResult{WordCount: 150}).Content; got != 50 {
		t.Errorf("half-length content score = %d, want 50", got)
	}
}

func TestGradePage_Overall(t *testing.T) {
	perfect := &models.PageResult{
		Title:           strings.Repeat("a", 45),
		MetaDescription: strings.Repeat("a", 140),
		MetaKeywords:    "seo, testing",
		H1:              []string{"Heading"},
		WordCount:       400,
	}
	scores := GradePage(perfect)
	if scores.Overall != 100 {
		t.Errorf("perfect page Overall = %d, want 100", scores.Overall)
	}

	empty := GradePage(&models.PageResult{})
	// Images default to 100 when there are none to annotate
	if empty.Overall != 100/6 {
		t.Errorf("empty page Overall = %d, want %d", empty.Overall, 100/6)
	}
}
