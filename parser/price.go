package parser

import (
	"strconv"
	"strings"
	"time"
)

// ParsePrice converts a display price to its numeric value. Currency
// symbols and thousands separators are stripped; a range like
// "$10.00 to $20.00" yields the lower bound. Unparsable text yields 0;
// the caller keeps the raw text for audit.
func ParsePrice(text string) float64 {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if idx := strings.Index(cleaned, " to "); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.TrimSpace(cleaned)

	// Item pages prefix the amount with a currency marker ("US $129.99",
	// "£9.50"); drop everything before the first digit.
	if idx := strings.IndexFunc(cleaned, func(r rune) bool { return r >= '0' && r <= '9' }); idx > 0 {
		cleaned = cleaned[idx:]
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// ParseListingDate recognizes the "2-Mar 14:05" card date format and
// resolves it against the current year.
func ParseListingDate(text string, now time.Time) (time.Time, bool) {
	parsed, err := time.ParseInLocation("2-Jan 15:04", text, now.Location())
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, now.Location()), true
}
