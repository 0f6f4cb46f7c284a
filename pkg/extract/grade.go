package extract

import "seo-audit/pkg/models"

// SEO grading thresholds. Title and description bounds follow the usual
// SERP display limits.
const (
	titleMinLength = 30
	titleMaxLength = 60
	descMinLength  = 120
	descMaxLength  = 160
	minWordCount   = 300
)

// GradePage computes the rule-based quality scores for an extracted page.
// Each sub-score is 0-100; Overall is their mean.
func GradePage(r *models.PageResult) models.PageScores {
	scores := models.PageScores{
		Title:       gradeTitle(r),
		Description: gradeDescription(r),
		Keywords:    gradeKeywords(r),
		Headings:    gradeHeadings(r),
		Images:      gradeImages(r),
		Content:     gradeContent(r),
	}
	scores.Overall = (scores.Title + scores.Description + scores.Keywords +
		scores.Headings + scores.Images + scores.Content) / 6
	return scores
}

func gradeTitle(r *models.PageResult) int {
	n := len(r.Title)
	switch {
	case n == 0:
		return 0
	case n < titleMinLength:
		// Short titles waste SERP real estate but are not fatal
		return 50 + 40*n/titleMinLength
	case n <= titleMaxLength:
		return 100
	case n <= titleMaxLength+20:
		return 70
	default:
		return 40
	}
}

func gradeDescription(r *models.PageResult) int {
	n := len(r.MetaDescription)
	switch {
	case n == 0:
		return 0
	case n < descMinLength:
		return 60
	case n <= descMaxLength:
		return 100
	case n <= descMaxLength+40:
		return 70
	default:
		return 40
	}
}

func gradeKeywords(r *models.PageResult) int {
	if r.MetaKeywords == "" {
		return 0
	}
	return 100
}

func gradeHeadings(r *models.PageResult) int {
	switch len(r.H1) {
	case 0:
		return 0
	case 1:
		return 100
	default:
		// Multiple H1s dilute the main topic signal
		return 50
	}
}

func gradeImages(r *models.PageResult) int {
	if r.ImageCount == 0 {
		return 100 // Nothing to annotate
	}
	withAlt := r.ImageCount - r.ImagesMissingAlt
	return 100 * withAlt / r.ImageCount
}

func gradeContent(r *models.PageResult) int {
	switch {
	case r.WordCount == 0:
		return 0
	case r.WordCount >= minWordCount:
		return 100
	default:
		return 100 * r.WordCount / minWordCount
	}
}
