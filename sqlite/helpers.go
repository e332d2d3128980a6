package sqlite

import (
	"fmt"
	"time"

	"github.com/fwojciec/billfetch"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// formatMonth stores an optional month as YYYY-MM, or "" when absent.
func formatMonth(ym *billfetch.YearMonth) string {
	if ym == nil {
		return ""
	}
	return ym.String()
}

func parseMonth(value string) (*billfetch.YearMonth, error) {
	if value == "" {
		return nil, nil
	}
	ym, err := billfetch.ParseYearMonth(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice_month: %w", err)
	}
	return ym, nil
}
