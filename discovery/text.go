package discovery

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// ImageExtension is appended to every sanitized title.
	ImageExtension = ".jpg"
	// MaxFilenameLength bounds the sanitized title, in runes.
	MaxFilenameLength = 50
	// fallbackFilename names images of titles with no usable characters.
	fallbackFilename = "article"
)

var moneyPattern = regexp.MustCompile(`\$[\d,]+\.?\d*|\d+\s(dollars|USD)`)

// SanitizeTitle derives a filesystem-safe name from a title: characters other
// than letters, digits, underscores, whitespace and hyphens are dropped,
// whitespace runs become a single underscore, and the result is cut to
// MaxFilenameLength runes.
func SanitizeTitle(title string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r), r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, title)

	sanitized := strings.Join(strings.Fields(kept), "_")

	runes := []rune(sanitized)
	if len(runes) > MaxFilenameLength {
		sanitized = string(runes[:MaxFilenameLength])
	}
	return sanitized
}

// ImageFilename returns the image file name for an article title. Titles
// that sanitize to nothing share a fallback name.
func ImageFilename(title string) string {
	name := SanitizeTitle(title)
	if name == "" {
		name = fallbackFilename
	}
	return name + ImageExtension
}

// CountPhrase counts case-sensitive occurrences of phrase in title and in
// description separately and adds them.
func CountPhrase(phrase, title, description string) int {
	if phrase == "" {
		return 0
	}
	return strings.Count(title, phrase) + strings.Count(description, phrase)
}

// ContainsMoney reports whether text mentions an amount of money, either as
// "$1,200.50" or as "500 dollars" / "500 USD".
func ContainsMoney(text string) bool {
	return moneyPattern.MatchString(text)
}
