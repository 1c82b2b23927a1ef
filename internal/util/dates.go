package util

import "time"

const DATE_LAYOUT = "2006-01-02"

// DateKey is the UTC calendar date of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(DATE_LAYOUT)
}

// IsPreviousDay reports whether prev is the calendar day right before current.
func IsPreviousDay(prev, current string) bool {
	p, err := time.Parse(DATE_LAYOUT, prev)
	if err != nil {
		return false
	}
	c, err := time.Parse(DATE_LAYOUT, current)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Equal(c)
}
