package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const minYear = 1900

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

const monthAlternation = `january|february|march|april|may|june|july|august|september|october|november|december`

// Patterns in precedence order. The whole text is scanned with one pattern
// before the next is tried.
var (
	monthDayYear = regexp.MustCompile(`(?i)\b(` + monthAlternation + `)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})\b`)
	monthYear    = regexp.MustCompile(`(?i)\b(` + monthAlternation + `),?\s*(\d{4})\b`)
	dayMonthYear = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4})\b`)
	yearMonthDay = regexp.MustCompile(`\b(\d{4})[-./](\d{1,2})[-./](\d{1,2})`)
	bareYear     = regexp.MustCompile(`\b(\d{4})\b`)

	pdfCompact = regexp.MustCompile(`D:(\d{4})(\d{2})`)

	copyrightYears = regexp.MustCompile(`(?i)(?:©|\(c\)|copyright)\s*(?:©\s*)?(\d{4})(?:\s*[-–—]\s*(\d{4}))?`)

	urlYearMonth = regexp.MustCompile(`/(\d{4})/(\d{1,2})(?:/|$)`)
	urlYear      = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

// match is a parsed (month, year) before provenance is attached.
type match struct {
	month    int
	year     int
	yearOnly bool
}

// scanner applies the general patterns relative to a fixed current date.
type scanner struct {
	now time.Time
}

func (s scanner) validYear(y int) bool {
	return y >= minYear && y <= s.now.Year()
}

func validMonth(m int) bool {
	return m >= 1 && m <= 12
}

// scan returns the first acceptable date in text. Future years and
// impossible months are skipped and scanning continues.
func (s scanner) scan(text string) (match, bool) {
	if strings.TrimSpace(text) == "" {
		return match{}, false
	}

	for _, m := range monthDayYear.FindAllStringSubmatch(text, -1) {
		day := atoi(m[2])
		if day < 1 || day > 31 {
			continue
		}
		if year := atoi(m[3]); s.validYear(year) {
			return match{month: int(monthNames[strings.ToLower(m[1])]), year: year}, true
		}
	}

	for _, m := range monthYear.FindAllStringSubmatch(text, -1) {
		if year := atoi(m[2]); s.validYear(year) {
			return match{month: int(monthNames[strings.ToLower(m[1])]), year: year}, true
		}
	}

	for _, m := range dayMonthYear.FindAllStringSubmatch(text, -1) {
		day, month, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if day >= 1 && day <= 31 && validMonth(month) && s.validYear(year) {
			return match{month: month, year: year}, true
		}
	}

	for _, m := range yearMonthDay.FindAllStringSubmatch(text, -1) {
		year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if day >= 1 && day <= 31 && validMonth(month) && s.validYear(year) {
			return match{month: month, year: year}, true
		}
	}

	for _, m := range bareYear.FindAllStringSubmatch(text, -1) {
		if year := atoi(m[1]); s.validYear(year) {
			return s.yearOnly(year), true
		}
	}

	return match{}, false
}

// yearOnly approximates an unknown month with the current month.
func (s scanner) yearOnly(year int) match {
	return match{month: int(s.now.Month()), year: year, yearOnly: true}
}

// pdfDate parses a PDF info date such as "D:20240315093000Z".
func (s scanner) pdfDate(value string) (match, bool) {
	if m := pdfCompact.FindStringSubmatch(value); m != nil {
		year, month := atoi(m[1]), atoi(m[2])
		if validMonth(month) && s.validYear(year) {
			return match{month: month, year: year}, true
		}
	}
	return s.scan(value)
}

// latestCopyright returns the newest acceptable year named in any copyright
// notice of text, including both ends of ranges such as "2019-2024".
func (s scanner) latestCopyright(text string) (int, bool) {
	best := 0
	for _, m := range copyrightYears.FindAllStringSubmatch(text, -1) {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if y := atoi(g); s.validYear(y) && y > best {
				best = y
			}
		}
	}
	return best, best > 0
}

// urlDate finds a year in a URL path, with the month when the path reads /YYYY/MM/.
func (s scanner) urlDate(rawURL string) (match, bool) {
	for _, m := range urlYearMonth.FindAllStringSubmatch(rawURL, -1) {
		year, month := atoi(m[1]), atoi(m[2])
		if validMonth(month) && s.validYear(year) {
			return match{month: month, year: year}, true
		}
	}

	for _, m := range urlYear.FindAllStringSubmatch(rawURL, -1) {
		if year := atoi(m[1]); s.validYear(year) {
			return s.yearOnly(year), true
		}
	}

	return match{}, false
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
