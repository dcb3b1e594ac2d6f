package labeler

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText performs Unicode normalization and trims whitespace.
func NormalizeText(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.TrimSpace(normed)
	// Drop control characters except newlines and tabs.
	normed = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
	return normed
}

// IssueText combines the normalized title and description into the text that
// is fed to the classifier.
func IssueText(issue Issue) string {
	title := NormalizeText(issue.Title)
	desc := NormalizeText(issue.Description)
	switch {
	case title == "":
		return desc
	case desc == "" || desc == title:
		return title
	default:
		return title + "\n" + desc
	}
}
