package discovery

import "time"

// StartMonth returns the first day of the oldest month in the extraction
// window. numMonths of 0 or 1 both mean the current month only.
func StartMonth(now time.Time, numMonths int) time.Time {
	if numMonths < 1 {
		numMonths = 1
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -(numMonths - 1), 0)
}

// truncateToDate drops the time of day of t in loc.
func truncateToDate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
