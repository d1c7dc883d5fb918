package newsfeed

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-date format used in reports and snapshots.
const DateLayout = "2006-01-02"

// ArticleRecord is one extracted news item.
type ArticleRecord struct {
	Title string `json:"title"`
	// PublishedDate has date-only precision: midnight in the extraction
	// location.
	PublishedDate     time.Time `json:"date"`
	Description       string    `json:"description"`
	ImageFilename     string    `json:"picture_filename"`
	SearchPhraseCount int       `json:"search_phrase_count"`
	ContainsMoney     bool      `json:"contains_money"`
}

// Date returns the published date formatted as YYYY-MM-DD.
func (r ArticleRecord) Date() string {
	return r.PublishedDate.Format(DateLayout)
}

// Dataset is the full output of one extraction run.
type Dataset struct {
	RunID        uuid.UUID       `json:"run_id"`
	SearchPhrase string          `json:"search_phrase"`
	CategoryName string          `json:"category_name,omitempty"`
	NumMonths    int             `json:"num_months"`
	StartMonth   time.Time       `json:"start_month"`
	CreatedAt    time.Time       `json:"created_at"`
	Articles     []ArticleRecord `json:"articles"`
}
