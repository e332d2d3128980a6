// Package text extracts invoice months from link titles and URLs.
package text

import (
	"maps"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fwojciec/billfetch"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var _ billfetch.DateExtractor = (*MonthExtractor)(nil)

// monthNames maps accent-folded French and English month names.
var monthNames = map[string]time.Month{
	"janvier": time.January, "january": time.January,
	"fevrier": time.February, "february": time.February,
	"mars": time.March, "march": time.March,
	"avril": time.April, "april": time.April,
	"mai": time.May, "may": time.May,
	"juin": time.June, "june": time.June,
	"juillet": time.July, "july": time.July,
	"aout": time.August, "august": time.August,
	"septembre": time.September, "september": time.September,
	"octobre": time.October, "october": time.October,
	"novembre": time.November, "november": time.November,
	"decembre": time.December, "december": time.December,
}

var (
	namedMonth    = regexp.MustCompile(`\b(` + alternation(monthNames) + `)\s+(\d{4})\b`)
	yearDashMonth = regexp.MustCompile(`(\d{4})[-/](\d{1,2})`)
	monthSlashYr  = regexp.MustCompile(`(\d{1,2})/(\d{4})`)
	urlYearMonth  = regexp.MustCompile(`[/_\-](\d{4})[/_\-](\d{1,2})(?:[/_\-]|\.)`)
	urlDashMonth  = regexp.MustCompile(`(?:^|\D)(\d{4})[-/](\d{1,2})(?:\D|$)`)
)

func alternation(m map[string]time.Month) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, "|")
}

// MonthExtractor resolves the month of an invoice from its link title and
// URL. The first matching pattern wins:
//
//  1. "<month name> <year>" in the title, French or English, ignoring case
//     and accents
//  2. YYYY-MM or YYYY/MM in the title
//  3. YYYY-MM or YYYY/MM in the URL path or a query value, e.g.
//     /2024/03/, _2024_03.pdf, /factures/2024-03 or ?periode=2024-03
//  4. MM/YYYY in the title
//  5. year= and month= query parameters in the URL
//
// Years outside 2000-2100 and months outside 1-12 are ignored. A year
// without a month leaves the document undated.
type MonthExtractor struct{}

// Extract implements billfetch.DateExtractor.
func (MonthExtractor) Extract(title, rawURL string) *billfetch.YearMonth {
	folded := Fold(title)
	if ym := namedMonthIn(folded); ym != nil {
		return ym
	}
	if m := yearDashMonth.FindStringSubmatch(folded); m != nil {
		if ym := yearMonthStrings(m[1], m[2]); ym != nil {
			return ym
		}
	}
	if ym := urlMonth(rawURL); ym != nil {
		return ym
	}
	if m := monthSlashYr.FindStringSubmatch(folded); m != nil {
		if ym := yearMonthStrings(m[2], m[1]); ym != nil {
			return ym
		}
	}
	return queryMonth(rawURL)
}

func namedMonthIn(folded string) *billfetch.YearMonth {
	m := namedMonth.FindStringSubmatch(folded)
	if m == nil {
		return nil
	}
	return yearMonth(m[2], int(monthNames[m[1]]))
}

func urlMonth(rawURL string) *billfetch.YearMonth {
	if rawURL == "" {
		return nil
	}
	if m := urlYearMonth.FindStringSubmatch(rawURL); m != nil {
		if ym := yearMonthStrings(m[1], m[2]); ym != nil {
			return ym
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	query := u.Query()
	candidates := []string{u.Path}
	for _, k := range slices.Sorted(maps.Keys(query)) {
		candidates = append(candidates, query[k]...)
	}
	for _, c := range candidates {
		for _, m := range urlDashMonth.FindAllStringSubmatch(c, -1) {
			if ym := yearMonthStrings(m[1], m[2]); ym != nil {
				return ym
			}
		}
	}
	return nil
}

func queryMonth(rawURL string) *billfetch.YearMonth {
	if rawURL == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	var year, month string
	for k, v := range u.Query() {
		if len(v) == 0 {
			continue
		}
		switch strings.ToLower(k) {
		case "year":
			year = v[0]
		case "month":
			month = v[0]
		}
	}
	if year == "" || month == "" {
		return nil
	}
	return yearMonthStrings(year, month)
}

func yearMonthStrings(year, month string) *billfetch.YearMonth {
	m, err := strconv.Atoi(month)
	if err != nil {
		return nil
	}
	return yearMonth(year, m)
}

func yearMonth(year string, month int) *billfetch.YearMonth {
	y, err := strconv.Atoi(year)
	if err != nil || y < 2000 || y > 2100 || month < 1 || month > 12 {
		return nil
	}
	return &billfetch.YearMonth{Year: y, Month: time.Month(month)}
}

// Fold lower-cases s and strips diacritics, so "Février" becomes "fevrier".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}
