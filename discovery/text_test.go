package discovery

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"spaces become underscores", "Hello World", "Hello_World"},
		{"punctuation dropped", "What's next? A look: 2024!", "Whats_next_A_look_2024"},
		{"whitespace runs collapse", "  tabs\tand\n\nnewlines  ", "tabs_and_newlines"},
		{"hyphen and underscore kept", "self-driving cars_test", "self-driving_cars_test"},
		{"unicode letters kept", "Café in São Paulo", "Café_in_São_Paulo"},
		{"nothing usable", "?!$%", ""},
		{"truncated", strings.Repeat("a", 60), strings.Repeat("a", MaxFilenameLength)},
		{"truncated by runes", strings.Repeat("é", 60), strings.Repeat("é", MaxFilenameLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.title))
		})
	}
}

func TestImageFilename(t *testing.T) {
	assert.Equal(t, "Hello_World.jpg", ImageFilename("Hello World"))
	assert.Equal(t, "article.jpg", ImageFilename("???"))
	assert.Len(t, []rune(ImageFilename(strings.Repeat("x ", 40))), MaxFilenameLength+len(ImageExtension))
}

func TestCountPhrase(t *testing.T) {
	assert.Equal(t, 3, CountPhrase("tax", "tax plan", "new tax, old tax"))
	assert.Equal(t, 0, CountPhrase("Tax", "tax plan", "tax"), "matching is case-sensitive")
	assert.Equal(t, 0, CountPhrase("", "anything", "at all"))
	assert.Equal(t, 1, CountPhrase("AI", "AI", ""))
	// title and description are counted separately, never joined
	assert.Equal(t, 0, CountPhrase("ab", "a", "b"))
}

func TestContainsMoney(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"costs $11.1", true},
		{"costs $111,111.11", true},
		{"a $5 fee", true},
		{"11 dollars", true},
		{"11 USD", true},
		{"11dollars", false},
		{"eleven dollars", false},
		{"$ sign alone", false},
		{"Tickets now cost $" + "15 for adults", true},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsMoney(tt.text), tt.text)
	}
}

func TestStartMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 45, 0, 0, time.UTC)

	tests := []struct {
		numMonths int
		want      time.Time
	}{
		{-1, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{0, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{1, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{2, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{4, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)},
		{15, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StartMonth(now, tt.numMonths), "numMonths=%d", tt.numMonths)
	}
}

func TestStartMonth_EndOfMonth(t *testing.T) {
	now := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), StartMonth(now, 2))
}

func TestTruncateToDate(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("time zone database not available")
	}

	// 03:00 UTC on April 10th is still April 9th in Los Angeles.
	ts := time.Date(2024, 4, 10, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC), truncateToDate(ts, time.UTC))
	assert.Equal(t, time.Date(2024, 4, 9, 0, 0, 0, 0, la), truncateToDate(ts, la))
}
